package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/handler"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/client"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/credential"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/ppob-bfa-go/internal/port"
	"github.com/boddenberg/ppob-bfa-go/internal/service"

	"go.uber.org/zap"
)

const (
	testEmail    = "user@nutech.id"
	testPassword = "password123"
	testToken    = "tok-1"
)

// fakeUpstream is a stateful stand-in for the PPOB API.
type fakeUpstream struct {
	mu       sync.Mutex
	balance  int64
	records  []domain.HistoryRecord
	revoked  bool
	hits     map[string]int
	services []domain.Service
}

func newFakeUpstream(balance int64) *fakeUpstream {
	return &fakeUpstream{
		balance: balance,
		hits:    make(map[string]int),
		services: []domain.Service{
			{ServiceCode: "PLN", ServiceName: "Listrik", ServiceTariff: 100000},
			{ServiceCode: "PULSA", ServiceName: "Pulsa", ServiceTariff: 40000},
			{ServiceCode: "FREE", ServiceName: "Gratis", ServiceTariff: 0},
		},
	}
}

func (u *fakeUpstream) revoke() {
	u.mu.Lock()
	u.revoked = true
	u.mu.Unlock()
}

func (u *fakeUpstream) hitCount(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func writeEnvelope(w http.ResponseWriter, httpStatus, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "message": message, "data": data})
}

func (u *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hits[r.URL.Path]++

	switch r.URL.Path {
	case "/login":
		var req domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != testEmail || req.Password != testPassword {
			writeEnvelope(w, http.StatusUnauthorized, 103, "Username atau password salah", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, 0, "Login Sukses", map[string]string{"token": testToken})
		return
	case "/registration":
		writeEnvelope(w, http.StatusOK, 0, "Registrasi berhasil silahkan login", nil)
		return
	}

	if u.revoked || r.Header.Get("Authorization") != "Bearer "+testToken {
		writeEnvelope(w, http.StatusUnauthorized, 108, "Token tidak tidak valid atau kadaluwarsa", nil)
		return
	}

	switch r.URL.Path {
	case "/profile":
		writeEnvelope(w, http.StatusOK, 0, "Sukses", domain.Profile{Email: testEmail, FirstName: "User", LastName: "Nutech"})
	case "/profile/update":
		var req domain.UpdateProfileRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeEnvelope(w, http.StatusOK, 0, "Update Pofile berhasil", domain.Profile{Email: testEmail, FirstName: req.FirstName, LastName: req.LastName})
	case "/profile/image":
		if _, _, err := r.FormFile("file"); err != nil {
			writeEnvelope(w, http.StatusBadRequest, 102, "Format Image tidak sesuai", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, 0, "Update Profile Image berhasil", domain.Profile{Email: testEmail, ProfileImage: "https://img/profile.png"})
	case "/balance":
		writeEnvelope(w, http.StatusOK, 0, "Get Balance Berhasil", domain.BalanceData{Balance: u.balance})
	case "/services":
		writeEnvelope(w, http.StatusOK, 0, "Sukses", u.services)
	case "/banner":
		writeEnvelope(w, http.StatusOK, 0, "Sukses", []domain.Banner{{BannerName: "Banner 1"}})
	case "/topup":
		var req domain.TopUpRequest
		json.NewDecoder(r.Body).Decode(&req)
		u.balance += req.TopUpAmount
		u.record(domain.TransactionTopUp, "Top Up balance", req.TopUpAmount)
		writeEnvelope(w, http.StatusOK, 0, "Top Up Balance berhasil", domain.BalanceData{Balance: u.balance})
	case "/transaction":
		var req domain.PaymentRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, svc := range u.services {
			if svc.ServiceCode != req.ServiceCode {
				continue
			}
			if svc.ServiceTariff > u.balance {
				writeEnvelope(w, http.StatusBadRequest, 102, "Saldo tidak mencukupi", nil)
				return
			}
			u.balance -= svc.ServiceTariff
			u.record(domain.TransactionPayment, svc.ServiceName, svc.ServiceTariff)
			writeEnvelope(w, http.StatusOK, 0, "Transaksi berhasil", nil)
			return
		}
		writeEnvelope(w, http.StatusBadRequest, 102, "Service atau Layanan tidak ditemukan", nil)
	case "/transaction/history":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		page := []domain.HistoryRecord{}
		if offset < len(u.records) {
			end := min(offset+limit, len(u.records))
			page = u.records[offset:end]
		}
		writeEnvelope(w, http.StatusOK, 0, "Get History Berhasil", domain.HistoryPage{Offset: offset, Limit: limit, Records: page})
	default:
		http.NotFound(w, r)
	}
}

// record prepends a ledger entry. Caller holds mu.
func (u *fakeUpstream) record(kind domain.TransactionType, desc string, amount int64) {
	n := len(u.records) + 1
	rec := domain.HistoryRecord{
		InvoiceNumber:   fmt.Sprintf("INV-%03d", n),
		TransactionType: kind,
		Description:     desc,
		TotalAmount:     amount,
		CreatedOn:       time.Date(2024, 1, 1, 0, 0, n, 0, time.UTC),
	}
	u.records = append([]domain.HistoryRecord{rec}, u.records...)
}

// newTestServer builds the full BFF stack against upstream.
func newTestServer(t *testing.T, upstream *fakeUpstream) (http.Handler, *service.Sessions) {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("ppob-test", client.IsBreakerSuccess)
	bulkhead := resilience.NewBulkhead(8)
	retry := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}

	sessions := service.NewSessions(
		func(string) port.CredentialStore { return credential.NewMemory() },
		func(creds port.CredentialStore) service.SessionAPI {
			return client.NewPPOBClient(srv.Client(), srv.URL, creds, cb, retry, bulkhead, metrics, logger)
		},
		time.Minute,
		service.ContainerOptions{},
		metrics,
		logger,
	)
	t.Cleanup(sessions.Close)

	checks := []handler.HealthCheck{handler.BreakerCheck("ppob-api", cb)}
	return handler.NewRouter(sessions, checks, metrics, logger), sessions
}
