package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/services/docgen"
	emailsvc "github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/storage/coursecfg"
	testutil "github.com/trezcool/darasa/tests"
)

type fakeTextClient struct{}

func (fakeTextClient) GenerateText(_ context.Context, _, _ string) (string, error) {
	return "Generated text.", nil
}

func setup(t *testing.T) (Server, course.Repository) {
	conf := &core.Config{
		AppName:         "Darasa",
		TestMode:        true,
		SecretKey:       "test-secret",
		FrontendBaseURL: "https://classroom.test",
		TextAPI:         core.TextAPIConfig{CharBudget: 6000},
	}
	logger := testutil.NewLogger(t)

	repo, err := coursecfg.NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("setting up store: %v", err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := course.NewService(repo, fakeTextClient{}, docgen.NewRenderer(), mailSvc, conf, logger)

	srv := NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			CourseSvc:      svc,
			DisableReqLogs: true,
		},
	)
	return srv, repo
}

type httpErr struct {
	Error string `json:"error"`
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

// newMultipartRequest builds a multipart form request with the given fields
// and, when document is non-nil, a "document" file part.
func newMultipartRequest(t *testing.T, path string, fields map[string]string, document []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if document != nil {
		fw, err := w.CreateFormFile("document", "material.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if _, err = io.Copy(fw, bytes.NewReader(document)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantData []byte) {
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(wantData))
	}
}
