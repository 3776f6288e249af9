package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/mnemo/internal/adapters/http/api"
	"github.com/okian/mnemo/internal/adapters/mq/queue"
	"github.com/okian/mnemo/internal/adapters/repository"
	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/internal/domain/risk"
	"github.com/okian/mnemo/internal/domain/trend"
	"github.com/okian/mnemo/internal/domain/types"
	"github.com/okian/mnemo/internal/semantic"
	. "github.com/smartystreets/goconvey/convey"
)

// mockService implements api.Dependencies and api.StatsProvider.
type mockService struct {
	seen        map[string]bool
	enqueueFail bool
	enqueued    []model.Record
	processErr  error
	progression trend.Progression
	progErr     error
	matches     []semantic.Match
}

func newMockService() *mockService {
	return &mockService{seen: make(map[string]bool)}
}

func (m *mockService) SeenAndRecord(_ context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockService) Unrecord(_ context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockService) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockService) Process(_ context.Context, rec model.Record) (types.ProcessResult, error) {
	if m.processErr != nil {
		return types.ProcessResult{}, m.processErr
	}
	return types.ProcessResult{
		RecordID:       rec.RecordID,
		PatientID:      rec.PatientID,
		RiskAssessment: model.RiskAssessment{OverallRisk: 0.42},
		ChunksStored:   1,
	}, nil
}

func (m *mockService) Enqueue(_ context.Context, rec model.Record) error {
	if m.enqueueFail {
		return queue.ErrQueueFull
	}
	m.enqueued = append(m.enqueued, rec)
	return nil
}

func (m *mockService) Progression(_ context.Context, patientID string) (trend.Progression, error) {
	if m.progErr != nil {
		return trend.Progression{}, m.progErr
	}
	return m.progression, nil
}

func (m *mockService) Query(_ context.Context, query string, topK int) ([]semantic.Match, error) {
	return m.matches, nil
}

func (m *mockService) GetStats(_ context.Context) types.Stats {
	return types.Stats{PatientsTracked: 3, ChunksStored: 12}
}

func newTestServer(svc *mockService) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux
}

func TestRecordsEndpoint(t *testing.T) {
	Convey("Given the records endpoint", t, func() {
		svc := newMockService()
		mux := newTestServer(svc)

		Convey("When a valid record is posted", func() {
			body := `{"record_id":"rec-1","patient_id":"p-1","timestamp":"2024-03-01T09:00:00Z","patient_data":{"cognitive_tests":{"mmse_score":22}}}`
			req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the pipeline result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var result types.ProcessResult
				So(json.Unmarshal(w.Body.Bytes(), &result), ShouldBeNil)
				So(result.RecordID, ShouldEqual, "rec-1")
				So(result.RiskAssessment.OverallRisk, ShouldAlmostEqual, 0.42)
			})

			Convey("And resubmitting the same ID reports a duplicate", func() {
				w2 := httptest.NewRecorder()
				req2 := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(body))
				mux.ServeHTTP(w2, req2)

				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w2.Body.String(), ShouldContainSubstring, "duplicate")
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader("not json"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the patient ID is missing", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"patient_data":{}}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "missing patient_id")
		})

		Convey("When the timestamp is malformed", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"patient_id":"p-1","timestamp":"yesterday"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When scoring rejects a malformed field", func() {
			svc.processErr = &risk.ParseError{Field: "mmse_score", Value: "unknown"}
			req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"record_id":"rec-9","patient_id":"p-1"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the response is 422 and the ID is released for retry", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(svc.seen["rec-9"], ShouldBeFalse)
			})
		})

		Convey("When the method is not POST", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	Convey("Given the batch endpoint", t, func() {
		svc := newMockService()
		mux := newTestServer(svc)

		Convey("When a batch of records is posted", func() {
			body := `[
				{"record_id":"rec-1","patient_id":"p-1"},
				{"record_id":"rec-1","patient_id":"p-1"},
				{"record_id":"rec-2","patient_id":""},
				{"record_id":"rec-3","patient_id":"p-2"}
			]`
			req := httptest.NewRequest(http.MethodPost, "/api/records/batch", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then accepted, duplicate and rejected counts are reported", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp struct {
					Accepted   int `json:"accepted"`
					Duplicates int `json:"duplicates"`
					Rejected   int `json:"rejected"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Accepted, ShouldEqual, 2)
				So(resp.Duplicates, ShouldEqual, 1)
				So(resp.Rejected, ShouldEqual, 1)
				So(svc.enqueued, ShouldHaveLength, 2)
			})
		})

		Convey("When the queue is full", func() {
			svc.enqueueFail = true
			body := `[{"record_id":"rec-1","patient_id":"p-1"}]`
			req := httptest.NewRequest(http.MethodPost, "/api/records/batch", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the caller gets backpressure and the ID is released", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(svc.seen["rec-1"], ShouldBeFalse)
			})
		})
	})
}

func uploadBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	Convey("Given the upload endpoint", t, func() {
		svc := newMockService()
		mux := newTestServer(svc)

		Convey("When a CSV export is uploaded", func() {
			csv := "patient_id,age,mmse_score\np-1,74,22\n,70,25\np-2,68,28\n"
			body, contentType := uploadBody(t, "export.csv", csv)

			req := httptest.NewRequest(http.MethodPost, "/api/records/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then usable rows are enqueued and bad rows reported", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp struct {
					Accepted int `json:"accepted"`
					Skipped  []struct {
						Row    int    `json:"row"`
						Reason string `json:"reason"`
					} `json:"skipped"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Accepted, ShouldEqual, 2)
				So(resp.Skipped, ShouldHaveLength, 1)
				So(resp.Skipped[0].Row, ShouldEqual, 3)
				So(svc.enqueued, ShouldHaveLength, 2)
				So(svc.enqueued[0].PatientID, ShouldEqual, "p-1")
			})
		})

		Convey("When the form has no file part", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/records/upload", strings.NewReader("plain body"))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			svc.enqueueFail = true
			body, contentType := uploadBody(t, "export.csv", "patient_id,age\np-1,74\n")

			req := httptest.NewRequest(http.MethodPost, "/api/records/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestProgressionEndpoint(t *testing.T) {
	Convey("Given the progression endpoint", t, func() {
		svc := newMockService()
		svc.progression = trend.Progression{Status: trend.StatusAnalyzed}
		mux := newTestServer(svc)

		Convey("When a tracked patient is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/patients/p-1/progression", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"analyzed"`)
		})

		Convey("When the patient is unknown", func() {
			svc.progErr = repository.ErrNotFound
			req := httptest.NewRequest(http.MethodGet, "/api/patients/ghost/progression", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is malformed", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/patients/p-1", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the store fails", func() {
			svc.progErr = errors.New("shard offline")
			req := httptest.NewRequest(http.MethodGet, "/api/patients/p-1/progression", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestQueryEndpoint(t *testing.T) {
	Convey("Given the query endpoint", t, func() {
		svc := newMockService()
		svc.matches = []semantic.Match{
			{Chunk: semantic.Chunk{Text: "memory decline noted", SourceID: "rec-1"}, Similarity: 0.91},
		}
		mux := newTestServer(svc)

		Convey("When a query is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"memory decline","top_k":3}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			var resp struct {
				Query   string           `json:"query"`
				Matches []semantic.Match `json:"matches"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Matches, ShouldHaveLength, 1)
			So(resp.Matches[0].Chunk.SourceID, ShouldEqual, "rec-1")
		})

		Convey("When the query text is blank", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"  "}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the store is empty", func() {
			svc.matches = nil
			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"anything"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then matches is an empty array, not null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"matches":[]`)
			})
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		svc := newMockService()
		mux := newTestServer(svc)

		Convey("When health is checked", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "ok")
		})

		Convey("When stats are read", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			var stats types.Stats
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats.PatientsTracked, ShouldEqual, 3)
		})

		Convey("When metrics are scraped", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}
