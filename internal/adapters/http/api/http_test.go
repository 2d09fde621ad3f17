package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/instrank/internal/adapters/http/api"
	service "github.com/okian/instrank/internal/app"
	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/scoring"
	"github.com/okian/instrank/internal/domain/types"
	"github.com/okian/instrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps records calls and returns canned results.
type mockDeps struct {
	submitted   []model.Submission
	submitAck   types.Ack
	submitErr   error
	topN        []types.Entry
	topNErr     error
	rank        types.Entry
	rankErr     error
	result      model.InstitutionScore
	resultErr   error
	override    service.OverrideRequest
	overrideErr error
}

func (m *mockDeps) Score(ctx context.Context, metrics scoring.Metrics) (scoring.FinalResult, error) {
	return scoring.Compute(metrics), nil
}

func (m *mockDeps) Submit(_ context.Context, sub model.Submission) (types.Ack, error) {
	m.submitted = append(m.submitted, sub)
	return m.submitAck, m.submitErr
}

func (m *mockDeps) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDeps) Rank(_ context.Context, _ string) (types.Entry, error) {
	return m.rank, m.rankErr
}

func (m *mockDeps) Result(_ context.Context, _ string) (model.InstitutionScore, error) {
	return m.result, m.resultErr
}

func (m *mockDeps) Override(_ context.Context, id string, req service.OverrideRequest) (model.InstitutionScore, error) {
	m.override = req
	if m.overrideErr != nil {
		return model.InstitutionScore{}, m.overrideErr
	}
	return model.InstitutionScore{InstitutionID: id, Overridden: true}, nil
}

func (m *mockDeps) GetStats() map[string]any {
	return map[string]any{"started": true, "accepted": int64(3)}
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Code
}

func TestScoreEndpoint(t *testing.T) {
	Convey("Given the API router", t, func() {
		h := api.NewServer(&mockDeps{}).Routes()

		Convey("When posting a metric record", func() {
			body := `{"go":{"placement_pct":80,"higher_studies_pct":10,"exam_pass_pct":90,"phd_graduation_pct":50}}`
			rec := do(h, http.MethodPost, "/score", body)

			Convey("Then the full result is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res scoring.FinalResult
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.GO, ShouldEqual, 68.0)
				So(res.TLR.SubScores, ShouldContainKey, scoring.SubScoreSS)
			})
		})

		Convey("When the record carries absurdly large values", func() {
			rec := do(h, http.MethodPost, "/score", `{"rp":{"citations":1e305},"tlr":{"faculty_count":1}}`)

			Convey("Then a complete result is still returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res scoring.FinalResult
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.RP.SubScores, ShouldContainKey, scoring.SubScoreQP)
				So(res.FinalScore, ShouldBeBetweenOrEqual, 0.0, 100.0)
			})
		})

		Convey("When the body is malformed", func() {
			rec := do(h, http.MethodPost, "/score", `{"go":`)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "bad_request")
			})
		})

		Convey("When the body has unknown fields", func() {
			rec := do(h, http.MethodPost, "/score", `{"gov":{}}`)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			rec := do(h, http.MethodGet, "/score", "")

			Convey("Then the router rejects it", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestSubmissionsEndpoint(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := &mockDeps{submitAck: types.Ack{SubmissionID: "s-1", Status: types.AckAccepted}}
		h := api.NewServer(deps).Routes()
		body := `{"submission_id":"s-1","institution_id":"inst-1","submitted_at":"2026-01-01T00:00:00Z","metrics":{}}`

		Convey("When a new submission is posted", func() {
			rec := do(h, http.MethodPost, "/submissions", body)

			Convey("Then it is accepted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.submitted), ShouldEqual, 1)
				So(deps.submitted[0].InstitutionID, ShouldEqual, "inst-1")
				So(deps.submitted[0].SubmittedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the submission is a duplicate", func() {
			deps.submitAck = types.Ack{SubmissionID: "s-1", Status: types.AckDuplicate, Duplicate: true}
			rec := do(h, http.MethodPost, "/submissions", body)

			Convey("Then it is acknowledged with 200", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var ack types.Ack
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the service rejects the submission", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{service.ErrInvalidSubmission, http.StatusBadRequest, "bad_request"},
				{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
				{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
				{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
			}

			Convey("Then the error kind decides the status", func() {
				for _, tc := range cases {
					deps.submitErr = fmt.Errorf("service.submit: %w", tc.err)
					rec := do(h, http.MethodPost, "/submissions", body)
					So(rec.Code, ShouldEqual, tc.status)
					So(errorCode(rec), ShouldEqual, tc.code)
				}
			})
		})
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given the API router with a leaderboard", t, func() {
		deps := &mockDeps{topN: []types.Entry{
			{Rank: 1, InstitutionID: "a", FinalScore: 90},
			{Rank: 1, InstitutionID: "b", FinalScore: 90},
			{Rank: 3, InstitutionID: "c", FinalScore: 70},
		}}
		h := api.NewServer(deps, api.WithMaxLeaderboardLimit(10)).Routes()

		Convey("When requesting a valid limit", func() {
			rec := do(h, http.MethodGet, "/leaderboard?limit=2", "")

			Convey("Then that many entries are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[1].Rank, ShouldEqual, 1)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			for _, q := range []string{"0", "-1", "abc"} {
				rec := do(h, http.MethodGet, "/leaderboard?limit="+q, "")
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "bad_request")
			}
			rec := do(h, http.MethodGet, "/leaderboard?limit=11", "")

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the leaderboard is empty", func() {
			deps.topN = nil
			rec := do(h, http.MethodGet, "/leaderboard", "")

			Convey("Then an empty array is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, "[]")
			})
		})
	})
}

func TestInstitutionEndpoints(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := &mockDeps{
			rank:   types.Entry{Rank: 2, InstitutionID: "inst-1", FinalScore: 61.5},
			result: model.InstitutionScore{InstitutionID: "inst-1", SubmissionID: "s-1"},
		}
		h := api.NewServer(deps).Routes()

		Convey("When reading a known institution", func() {
			rankRec := do(h, http.MethodGet, "/rank/inst-1", "")
			resRec := do(h, http.MethodGet, "/institutions/inst-1", "")

			Convey("Then its rank and stored score are returned", func() {
				So(rankRec.Code, ShouldEqual, http.StatusOK)
				So(rankRec.Body.String(), ShouldContainSubstring, `"rank":2`)
				So(resRec.Code, ShouldEqual, http.StatusOK)
				So(resRec.Body.String(), ShouldContainSubstring, `"submission_id":"s-1"`)
			})
		})

		Convey("When the institution is unknown", func() {
			deps.rankErr = service.ErrNotFound
			deps.resultErr = service.ErrNotFound

			Convey("Then both reads are 404", func() {
				So(do(h, http.MethodGet, "/rank/missing", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodGet, "/institutions/missing", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When posting an override", func() {
			rec := do(h, http.MethodPost, "/institutions/inst-1/overrides",
				`{"category":"tlr","sub_score":"ss","value":20,"reviewer":"panel"}`)

			Convey("Then the request reaches the service", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.override.Category, ShouldEqual, scoring.CategoryTLR)
				So(deps.override.SubScore, ShouldEqual, "ss")
				So(deps.override.Value, ShouldEqual, 20.0)
			})
		})

		Convey("When the override fails", func() {
			cases := map[error]int{
				service.ErrInvalidOverride: http.StatusBadRequest,
				service.ErrNotFound:        http.StatusNotFound,
				service.ErrConflict:        http.StatusConflict,
			}

			Convey("Then the error kind decides the status", func() {
				for err, status := range cases {
					deps.overrideErr = err
					rec := do(h, http.MethodPost, "/institutions/inst-1/overrides", `{"category":"go","value":1}`)
					So(rec.Code, ShouldEqual, status)
				}
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API router", t, func() {
		h := api.NewServer(&mockDeps{}, api.WithCORSOrigins([]string{"https://rank.example.org"})).Routes()

		Convey("When checking health", func() {
			rec := do(h, http.MethodGet, "/healthz", "")

			Convey("Then a JSON status is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When scraping metrics after some traffic", func() {
			do(h, http.MethodGet, "/stats", "")
			rec := do(h, http.MethodGet, "/metrics", "")

			Convey("Then the http metrics are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "instrank_")
				So(rec.Body.String(), ShouldContainSubstring, `endpoint="/stats"`)
			})
		})

		Convey("When fetching the API description", func() {
			rec := do(h, http.MethodGet, "/openapi.yaml", "")

			Convey("Then the OpenAPI document is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "/institutions/{institutionID}/overrides")
			})
		})

		Convey("When reading stats", func() {
			rec := do(h, http.MethodGet, "/stats", "")

			Convey("Then the provider output is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"accepted":3`)
			})
		})

		Convey("When a browser sends a preflight request", func() {
			req := httptest.NewRequest(http.MethodOptions, "/score", nil)
			req.Header.Set("Origin", "https://rank.example.org")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then the allowed origin is echoed", func() {
				So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://rank.example.org")
			})
		})

		Convey("When a request carries a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/x", nil)
			req.Header.Set("X-Request-Id", "req-42")
			rec := httptest.NewRecorder()
			api.NewServer(&mockDeps{rankErr: service.ErrNotFound}).Routes().ServeHTTP(rec, req)

			Convey("Then error bodies echo it", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, `"request_id":"req-42"`)
			})
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the router backed by a running service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()
		h := api.NewServer(svc).Routes()

		Convey("When submissions are posted", func() {
			for i, p := range []float64{30, 80} {
				sub := model.Submission{
					SubmissionID:  fmt.Sprintf("e2e-%d", i),
					InstitutionID: fmt.Sprintf("inst-%d", i),
					Metrics:       scoring.Metrics{PR: scoring.PRMetrics{PeerPerception: p, EmployerPerception: p, PublicPerception: p}},
				}
				raw, err := json.Marshal(sub)
				So(err, ShouldBeNil)
				req := httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(raw))
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusAccepted)
			}

			Convey("Then the leaderboard ranks them", func() {
				var entries []types.Entry
				deadline := time.Now().Add(3 * time.Second)
				for time.Now().Before(deadline) {
					rec := do(h, http.MethodGet, "/leaderboard?limit=10", "")
					entries = nil
					_ = json.Unmarshal(rec.Body.Bytes(), &entries)
					if len(entries) == 2 {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(len(entries), ShouldEqual, 2)
				So(entries[0].InstitutionID, ShouldEqual, "inst-1")
				So(entries[1].Rank, ShouldEqual, 2)
			})
		})
	})
}
