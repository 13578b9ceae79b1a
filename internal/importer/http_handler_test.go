package importer

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/auth"
)

func TestHandlerImportRequiresCuratorRole(t *testing.T) {
	service := NewService(newStubSpeciesRepo(), &stubStrandingRepo{}, &stubImportLogRepo{},
		WithReportDirectory(t.TempDir()))
	handler := NewHTTPHandler(service, &stubImportLogRepo{})

	body, contentType := multipartUpload(t, "strandings.csv", buildCSV(t))
	req := httptest.NewRequest(http.MethodPost, "/imports/strandings", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.ContextWithRoles(req.Context(), []string{auth.RoleViewer}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerImportReturnsSummary(t *testing.T) {
	strandingRepo := &stubStrandingRepo{}
	service := NewService(newStubSpeciesRepo("Tursiops aduncus"), strandingRepo, &stubImportLogRepo{},
		WithReportDirectory(t.TempDir()))
	handler := NewHTTPHandler(service, &stubImportLogRepo{})

	data := buildCSV(t,
		testRow(map[string]string{
			ColScientificName: "Tursiops aduncus",
			ColIncidentDate:   "2024-05-01",
		}),
	)
	body, contentType := multipartUpload(t, "strandings.csv", data)
	req := httptest.NewRequest(http.MethodPost, "/imports/strandings", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.ContextWithRoles(req.Context(), []string{auth.RoleCurator}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Imported != 1 || resp.Failed != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Message != "Successfully imported 1 records" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	if resp.ReportURL != nil {
		t.Fatalf("did not expect a report url for a clean run")
	}
	if len(strandingRepo.created) != 1 {
		t.Fatalf("expected record persisted via handler")
	}
}

func TestHandlerImportLinksFailureReport(t *testing.T) {
	service := NewService(newStubSpeciesRepo("Tursiops aduncus"), &stubStrandingRepo{}, &stubImportLogRepo{},
		WithReportDirectory(t.TempDir()))
	handler := NewHTTPHandler(service, &stubImportLogRepo{})

	data := buildCSV(t,
		testRow(map[string]string{
			ColScientificName: "Tursiops aduncus",
			ColIncidentDate:   "2024-05-01",
		}),
		testRow(map[string]string{
			ColScientificName: "Unknownus speciesus",
			ColIncidentDate:   "2024-05-02",
		}),
	)
	body, contentType := multipartUpload(t, "strandings.csv", data)
	req := httptest.NewRequest(http.MethodPost, "/imports/strandings", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.ContextWithRoles(req.Context(), []string{auth.RoleCurator}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Imported 1 records, 1 rows failed" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	if resp.ReportURL == nil || !strings.Contains(*resp.ReportURL, "/imports/files/failed_imports_") {
		t.Fatalf("expected signed report url, got %v", resp.ReportURL)
	}
	if !strings.Contains(*resp.ReportURL, "token=") {
		t.Fatalf("report url should carry a token: %s", *resp.ReportURL)
	}

	// The signed URL must serve the workbook without any auth context.
	download := httptest.NewRequest(http.MethodGet, *resp.ReportURL, nil)
	downloadRec := httptest.NewRecorder()
	handler.ServeHTTP(downloadRec, download)
	if downloadRec.Code != http.StatusOK {
		t.Fatalf("expected report download to succeed, got %d: %s",
			downloadRec.Code, downloadRec.Body.String())
	}
	if got := downloadRec.Header().Get("Content-Disposition"); !strings.Contains(got, "failed_imports_") {
		t.Fatalf("unexpected content disposition: %q", got)
	}
}

func TestHandlerImportRejectsBadUpload(t *testing.T) {
	service := NewService(newStubSpeciesRepo(), &stubStrandingRepo{}, &stubImportLogRepo{},
		WithReportDirectory(t.TempDir()))
	handler := NewHTTPHandler(service, &stubImportLogRepo{})

	body, contentType := multipartUpload(t, "notes.txt", "free text")
	req := httptest.NewRequest(http.MethodPost, "/imports/strandings", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.ContextWithRoles(req.Context(), []string{auth.RoleCurator}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := newDownloadSigner(15 * time.Minute)
	issued := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	token := signer.Sign("failed_imports_20240501T100000.xlsx", issued)

	if err := signer.Verify("failed_imports_20240501T100000.xlsx", token, issued.Add(5*time.Minute)); err != nil {
		t.Fatalf("expected token to verify: %v", err)
	}
	if err := signer.Verify("failed_imports_20240501T100000.xlsx", token, issued.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
	if err := signer.Verify("other.xlsx", token, issued); err == nil {
		t.Fatalf("expected file mismatch to be rejected")
	}
	if err := signer.Verify("failed_imports_20240501T100000.xlsx", "", issued); err == nil {
		t.Fatalf("expected empty token to be rejected")
	}
	if err := signer.Verify("failed_imports_20240501T100000.xlsx", "mangled", issued); err == nil {
		t.Fatalf("expected mangled token to be rejected")
	}

	other := newDownloadSigner(15 * time.Minute)
	if err := other.Verify("failed_imports_20240501T100000.xlsx", token, issued); err == nil {
		t.Fatalf("expected token from another signer to be rejected")
	}
}

func TestHandlerListLogs(t *testing.T) {
	logRepo := &stubImportLogRepo{}
	service := NewService(newStubSpeciesRepo(), &stubStrandingRepo{}, logRepo,
		WithReportDirectory(t.TempDir()))
	handler := NewHTTPHandler(service, logRepo)

	req := httptest.NewRequest(http.MethodGet, "/imports/logs?fileName=strandings.csv", nil)
	req = req.WithContext(auth.ContextWithRoles(req.Context(), []string{auth.RoleCurator}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	missing := httptest.NewRequest(http.MethodGet, "/imports/logs", nil)
	missing = missing.WithContext(auth.ContextWithRoles(missing.Context(), []string{auth.RoleCurator}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, missing)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without fileName, got %d", rec.Code)
	}
}

func multipartUpload(t *testing.T, fileName, contents string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
