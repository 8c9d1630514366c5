package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	antrianModels "github.com/c14220110/poliklinik-antrian/internal/antrian/models"
	konsultasiModels "github.com/c14220110/poliklinik-antrian/internal/konsultasi/models"
	obatModels "github.com/c14220110/poliklinik-antrian/internal/obat/models"
	pasienModels "github.com/c14220110/poliklinik-antrian/internal/pasien/models"
	resepModels "github.com/c14220110/poliklinik-antrian/internal/resep/models"
	"github.com/c14220110/poliklinik-antrian/pkg/apperr"
)

const defaultTimeout = 10 * time.Second

// HTTPClient memanggil REST API poliklinik dan membuka envelope {status, message, data}.
type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

var _ ClinicAPI = (*HTTPClient)(nil)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorData struct {
	Code  string `json:"code"`
	Field string `json:"field"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal("encode_request", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return apperr.Internal("build_request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Transient("network_error", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// body bukan envelope (mis. proxy); status HTTP tetap menentukan jenis error.
		if resp.StatusCode >= 400 {
			return mapError(resp.StatusCode, envelope{})
		}
		return apperr.Internal("decode_response", err)
	}

	if resp.StatusCode >= 400 {
		return mapError(resp.StatusCode, env)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Internal("decode_response", err)
	}
	return nil
}

// mapError mengubah respons gagal kembali ke taksonomi apperr.
func mapError(status int, env envelope) error {
	var d errorData
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &d)
	}
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	code := d.Code

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if code == "" {
			code = "invalid_request"
		}
		return apperr.Validation(d.Field, code, msg)
	case status == http.StatusConflict:
		if code == "" {
			code = "conflict"
		}
		return apperr.Conflict(code, msg)
	case status == http.StatusNotFound:
		if code == "" {
			code = "not_found"
		}
		return apperr.NotFound(code, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Unauthorized(msg)
	case status == http.StatusTooManyRequests || status >= 500:
		if code == "" {
			code = "server_error"
		}
		return apperr.Transient(code, fmt.Errorf("HTTP %d: %s", status, msg))
	default:
		return &apperr.Error{Kind: apperr.KindInternal, Code: "unexpected_status", Message: msg}
	}
}

func idQuery(key string, id int64) url.Values {
	return url.Values{key: []string{strconv.FormatInt(id, 10)}}
}

func (c *HTTPClient) GetActiveQueues(ctx context.Context, date string) (antrianModels.ActiveQueues, error) {
	var out antrianModels.ActiveQueues
	q := url.Values{}
	if date != "" {
		q.Set("tanggal", date)
	}
	err := c.do(ctx, http.MethodGet, "/api/antrian/aktif", q, nil, &out)
	return out, err
}

func (c *HTTPClient) CallPatient(ctx context.Context, queueID int64) error {
	return c.do(ctx, http.MethodPut, "/api/antrian/panggil", idQuery("id_antrian", queueID), nil, nil)
}

func (c *HTTPClient) StartConsultation(ctx context.Context, queueID int64) error {
	return c.do(ctx, http.MethodPut, "/api/antrian/mulai", idQuery("id_antrian", queueID), nil, nil)
}

func (c *HTTPClient) CompleteConsultation(ctx context.Context, queueID int64) error {
	return c.do(ctx, http.MethodPut, "/api/antrian/selesai", idQuery("id_antrian", queueID), nil, nil)
}

func (c *HTTPClient) CancelQueue(ctx context.Context, queueID int64, reason string) error {
	body := antrianModels.CancelRequest{Reason: reason}
	return c.do(ctx, http.MethodPut, "/api/antrian/batal", idQuery("id_antrian", queueID), body, nil)
}

func (c *HTTPClient) SubmitConsultationCompletion(ctx context.Context, queueID int64, req konsultasiModels.ConsultationCompletion) (konsultasiModels.CompletionResult, error) {
	var out konsultasiModels.CompletionResult
	err := c.do(ctx, http.MethodPost, "/api/antrian/konsultasi", idQuery("id_antrian", queueID), req, &out)
	return out, err
}

func (c *HTTPClient) SearchMedications(ctx context.Context, query, category string, limit int) ([]obatModels.Obat, error) {
	q := url.Values{"q": []string{query}}
	if category != "" {
		q.Set("kategori", category)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out obatModels.SearchResult
	if err := c.do(ctx, http.MethodGet, "/api/obat/cari", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Medications, nil
}

func (c *HTTPClient) GetMedicationCategories(ctx context.Context) ([]obatModels.CategoryCount, error) {
	var out []obatModels.CategoryCount
	err := c.do(ctx, http.MethodGet, "/api/obat/kategori", nil, nil, &out)
	return out, err
}

func (c *HTTPClient) SearchPatients(ctx context.Context, query string, limit int) ([]pasienModels.Pasien, error) {
	q := url.Values{"q": []string{query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []pasienModels.Pasien
	err := c.do(ctx, http.MethodGet, "/api/pasien/cari", q, nil, &out)
	return out, err
}

func (c *HTTPClient) GetPrescription(ctx context.Context, id int64) (resepModels.Prescription, error) {
	var out resepModels.Prescription
	err := c.do(ctx, http.MethodGet, "/api/resep", idQuery("id_resep", id), nil, &out)
	return out, err
}

func (c *HTTPClient) UpdatePrescriptionPayment(ctx context.Context, id int64, upd resepModels.PaymentUpdate) (resepModels.Prescription, error) {
	var out resepModels.Prescription
	err := c.do(ctx, http.MethodPut, "/api/resep/pembayaran", idQuery("id_resep", id), upd, &out)
	return out, err
}

func (c *HTTPClient) DispensePrescription(ctx context.Context, id int64, req resepModels.DispenseRequest) (resepModels.Prescription, error) {
	var out resepModels.Prescription
	err := c.do(ctx, http.MethodPut, "/api/resep/serahkan", idQuery("id_resep", id), req, &out)
	return out, err
}
