package importer

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/auth"
	"github.com/dbca-wa/wastd-sub002/internal/repository"

	"github.com/google/uuid"
)

// Handler exposes the import pipeline over HTTP: a multipart upload
// endpoint, a signed error-report download endpoint, and the import log.
type Handler struct {
	service *Service
	logRepo repository.ImportLogRepository
	signer  *downloadSigner
	now     func() time.Time
}

// NewHTTPHandler wraps the service with the import endpoints.
func NewHTTPHandler(service *Service, logRepo repository.ImportLogRepository) *Handler {
	return &Handler{
		service: service,
		logRepo: logRepo,
		signer:  newDownloadSigner(15 * time.Minute),
		now:     time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		h.handleImport(w, r)
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/files/"):
		h.handleDownload(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/logs"):
		h.handleListLogs(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type importResponse struct {
	TotalRows int     `json:"totalRows"`
	Imported  int     `json:"imported"`
	Failed    int     `json:"failed"`
	Message   string  `json:"message"`
	ReportURL *string `json:"reportUrl,omitempty"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := auth.EnforceCuratorAccess(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	summary, err := h.service.Import(r.Context(), Request{
		FileName: header.Filename,
		Data:     bytes.NewReader(data),
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := importResponse{
		TotalRows: summary.TotalRows,
		Imported:  summary.Imported,
		Failed:    summary.Failed,
	}
	if summary.Failed == 0 {
		resp.Message = fmt.Sprintf("Successfully imported %d records", summary.Imported)
	} else {
		resp.Message = fmt.Sprintf("Imported %d records, %d rows failed", summary.Imported, summary.Failed)
		if summary.Report != nil {
			download := h.buildReportURL(*summary.Report)
			resp.ReportURL = &download
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) buildReportURL(report Report) string {
	values := url.Values{}
	values.Set("token", h.signer.Sign(report.FileName, h.now()))
	return fmt.Sprintf("/imports/files/%s?%s", report.FileName, values.Encode())
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(r.URL.Path, "/files/", 2)
	if len(parts) != 2 || parts[1] == "" {
		http.Error(w, "report file name required", http.StatusBadRequest)
		return
	}
	fileName := parts[1]

	if err := h.signer.Verify(fileName, r.URL.Query().Get("token"), h.now()); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	file, err := h.service.reporter.Open(fileName)
	if err != nil {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if _, err := io.Copy(w, file); err != nil {
		// Headers are already out; nothing recoverable here.
		return
	}
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	if err := auth.EnforceCuratorAccess(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	fileName := strings.TrimSpace(query.Get("fileName"))
	if fileName == "" {
		http.Error(w, "fileName is required", http.StatusBadRequest)
		return
	}

	limit := 200
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	logs, err := h.logRepo.List(r.Context(), fileName, limit, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// downloadSigner issues short-lived HMAC tokens for report downloads so the
// artifact URL can be handed to a browser without carrying auth headers.
type downloadSigner struct {
	secret []byte
	ttl    time.Duration
}

func newDownloadSigner(ttl time.Duration) *downloadSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &downloadSigner{secret: []byte(uuid.New().String()), ttl: ttl}
}

func (s *downloadSigner) Sign(fileName string, now time.Time) string {
	expires := now.Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s:%d", fileName, expires)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	raw := fmt.Sprintf("%s:%s", payload, signature)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (s *downloadSigner) Verify(fileName, token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("missing download token")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return errors.New("invalid token format")
	}
	if parts[0] != fileName {
		return errors.New("token does not match report file")
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token expiration: %w", err)
	}
	if now.Unix() > expires {
		return errors.New("download token expired")
	}
	payload := fmt.Sprintf("%s:%s", parts[0], parts[1])
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	expected := mac.Sum(nil)
	provided, err := hex.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("invalid token signature: %w", err)
	}
	if !hmac.Equal(expected, provided) {
		return errors.New("invalid download token")
	}
	return nil
}
