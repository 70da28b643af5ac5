package v1_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	v1 "bizit/api/v1"
	"bizit/internal/bootstrap"
	"bizit/internal/config"
	geodomain "bizit/internal/geo/domain"
	"bizit/internal/testhelpers"
)

// ========================================
// Test Helpers
// ========================================

const (
	ownerEmail = "owner@bizit.kr"
	storeBody  = `{
		"sector_code": "I21201",
		"sector_name": "한식",
		"sector_code_cs": "CS100001",
		"location": {"address": "서울 강남구 테헤란로 152"},
		"sales_logs": [
			{"ym": "2025-06", "revenue": 9000000},
			{"ym": "2025-07", "revenue": 10000000}
		]
	}`
)

type apiFixture struct {
	router    *gin.Engine
	generator *testhelpers.FakeGenerator
}

func setupAPI(t *testing.T, salesPath string) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Dataset.SalesPath = salesPath
	cfg.Dataset.PopulationPath = filepath.Join(t.TempDir(), "absent.csv")

	generator := &testhelpers.FakeGenerator{Responses: []string{
		`[{"title":"점심 세트","solution":"직장인 대상 세트 메뉴"},{"title":"배달 확대","solution":"배달앱 입점"}]`,
		"사장님, 점심 세트부터 시작해 보세요.",
	}}

	container := bootstrap.Build(cfg, testhelpers.SetupTestDB(t), zap.NewNop(), bootstrap.Overrides{
		Geocoder: &testhelpers.FakeGeocoder{Result: &geodomain.GeocodeResult{
			Coordinate: geodomain.Coordinate{Lat: 37.5006, Lng: 127.0364},
			AdminCode:  "11680640",
			DongName:   "역삼1동",
		}},
		Locator:    &testhelpers.FakeLocator{Count: 2},
		Generator:  generator,
		BcryptCost: bcrypt.MinCost,
	})
	t.Cleanup(container.Close)

	router := gin.New()
	v1.NewHandler(container.Services, zap.NewNop()).RegisterRoutes(router.Group("/api"))
	return &apiFixture{router: router, generator: generator}
}

func salesDataset(t *testing.T) string {
	t.Helper()
	return testhelpers.WriteFile(t, "sales.csv", testhelpers.SalesDatasetCSV(
		"20252,11680640,CS100001,9200000",
		"20253,11680640,CS100001,9500000",
		"20252,11110515,CS100001,8800000",
		"20253,11110515,CS100001,8500000",
	))
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("token", token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// signedIn inscrit puis connecte le commerçant et retourne son jeton
func (f *apiFixture) signedIn(t *testing.T) string {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/user/signup", "",
		`{"user_email":"Owner@Bizit.kr","password":"s3cret","biz_name":"역삼 한식당","user_name":"김사장"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/api/user/signin", "", `{"user_email":"owner@bizit.kr","password":"s3cret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signin status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token    string `json:"token"`
		UserName string `json:"user_name"`
	}
	decode(t, w, &resp)
	if resp.Token == "" || resp.UserName != "김사장" {
		t.Fatalf("signin response = %+v", resp)
	}
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

// ========================================
// Tests: comptes
// ========================================

func TestAPI_Health(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	if w := f.do(t, http.MethodGet, "/api/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestAPI_SignupAndSignin(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	f.signedIn(t)

	w := f.do(t, http.MethodPost, "/api/user/signup", "",
		`{"user_email":"owner@bizit.kr","password":"x","biz_name":"b","user_name":"u"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/user/signin", "", `{"user_email":"owner@bizit.kr","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/user/signup", "", `{"user_email":"not-an-email","password":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid signup status = %d, want 400", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/user/signup", "", `{broken`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestAPI_AuthenticationRequired(t *testing.T) {
	f := setupAPI(t, salesDataset(t))

	for _, path := range []string{"/api/store/me", "/api/analysis/me", "/api/solution/list"} {
		if w := f.do(t, http.MethodGet, path, "", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token = %d, want 401", path, w.Code)
		}
		if w := f.do(t, http.MethodGet, path, "ghost@bizit.kr", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s with unknown token = %d, want 401", path, w.Code)
		}
	}

	token := f.signedIn(t)
	req := httptest.NewRequest(http.MethodGet, "/api/store/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("bearer token without store = %d, want 404", w.Code)
	}
}

// ========================================
// Tests: magasin et analyse
// ========================================

func TestAPI_SubmitStoreComputesAnalysis(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	token := f.signedIn(t)

	w := f.do(t, http.MethodPost, "/api/store/submit", token, storeBody)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
	}
	var submit map[string]any
	decode(t, w, &submit)
	if submit["message"] != "store profile created" || submit["analysis_status"] != "ready" || submit["user_id"] != ownerEmail {
		t.Errorf("submit response = %v", submit)
	}
	if _, ok := submit["surrounding"]; !ok {
		t.Error("submit response misses the surrounding summary")
	}

	w = f.do(t, http.MethodPost, "/api/store/submit", token, storeBody)
	decode(t, w, &submit)
	if submit["message"] != "store profile updated" {
		t.Errorf("second submit message = %v", submit["message"])
	}

	w = f.do(t, http.MethodGet, "/api/analysis/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("analysis/me status = %d: %s", w.Code, w.Body.String())
	}
	var analysis struct {
		Data struct {
			TargetYearMonth string `json:"target_ym"`
			Percentile      struct {
				Grade string `json:"grade"`
			} `json:"percentile"`
			MomGrowth struct {
				Direction string `json:"direction"`
			} `json:"mom_growth"`
		} `json:"data"`
	}
	decode(t, w, &analysis)
	if analysis.Data.TargetYearMonth != "2025-07" || analysis.Data.Percentile.Grade == "" || analysis.Data.MomGrowth.Direction != "UP" {
		t.Errorf("analysis = %+v", analysis.Data)
	}

	if w := f.do(t, http.MethodPost, "/api/analysis/run", token, ""); w.Code != http.StatusOK {
		t.Errorf("analysis/run status = %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/store/me", token, "")
	var profile struct {
		Location struct {
			AdminCode string `json:"admin_code"`
		} `json:"location"`
	}
	decode(t, w, &profile)
	if profile.Location.AdminCode != "11680640" {
		t.Errorf("admin code = %q, want geocoded value", profile.Location.AdminCode)
	}
}

func TestAPI_SubmitStoreValidation(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	token := f.signedIn(t)

	w := f.do(t, http.MethodPost, "/api/store/submit", token, `{"sector_code":"I21201"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid profile status = %d, want 400", w.Code)
	}
}

func TestAPI_AnalysisPendingWithoutHistory(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	token := f.signedIn(t)

	body := strings.Replace(storeBody, `{"ym": "2025-06", "revenue": 9000000},`, "", 1)
	w := f.do(t, http.MethodPost, "/api/store/submit", token, body)
	var submit map[string]any
	decode(t, w, &submit)
	if submit["analysis_status"] != "pending" {
		t.Errorf("analysis_status = %v, want pending", submit["analysis_status"])
	}

	w = f.do(t, http.MethodPost, "/api/analysis/run", token, "")
	if w.Code != http.StatusConflict {
		t.Errorf("run status = %d, want 409", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/api/analysis/me", token, ""); w.Code != http.StatusNotFound {
		t.Errorf("analysis/me status = %d, want 404", w.Code)
	}
}

func TestAPI_AnalysisUnavailableWithoutDataset(t *testing.T) {
	f := setupAPI(t, filepath.Join(t.TempDir(), "missing.csv"))
	token := f.signedIn(t)

	w := f.do(t, http.MethodPost, "/api/store/submit", token, storeBody)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
	}
	var submit map[string]any
	decode(t, w, &submit)
	if submit["analysis_status"] != "unavailable" || submit["warning"] == "" {
		t.Errorf("submit response = %v", submit)
	}

	if w := f.do(t, http.MethodPost, "/api/analysis/run", token, ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("run status = %d, want 503", w.Code)
	}
}

func TestAPI_ParseSalesFile(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	token := f.signedIn(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("년월,매출,순수익\n2025-06,9000000,1500000\n2025-07,10000000,2000000\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/store/parse-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("token", token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SuggestedData struct {
			SalesLogs []struct {
				YearMonth string `json:"ym"`
				Revenue   int64  `json:"revenue"`
			} `json:"sales_logs"`
		} `json:"suggested_data"`
	}
	decode(t, w, &resp)
	if len(resp.SuggestedData.SalesLogs) != 2 || resp.SuggestedData.SalesLogs[1].Revenue != 10_000_000 {
		t.Errorf("sales logs = %+v", resp.SuggestedData.SalesLogs)
	}

	if w := f.do(t, http.MethodPost, "/api/store/parse-file", token, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", w.Code)
	}
}

// ========================================
// Tests: export
// ========================================

func TestAPI_ExportAnalysis(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	token := f.signedIn(t)
	f.do(t, http.MethodPost, "/api/store/submit", token, storeBody)

	w := f.do(t, http.MethodGet, "/api/analysis/export?format=csv&type=trend", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(w.Body.String(), "2025-07") {
		t.Errorf("export body misses target month: %q", w.Body.String())
	}

	if w := f.do(t, http.MethodGet, "/api/analysis/export?format=pdf", token, ""); w.Code != http.StatusBadRequest {
		t.Errorf("unsupported format status = %d, want 400", w.Code)
	}
}

// ========================================
// Tests: recommandations et conversation
// ========================================

func TestAPI_SolutionsAndChat(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	token := f.signedIn(t)

	if w := f.do(t, http.MethodPost, "/api/solution/generate", token, ""); w.Code != http.StatusNotFound {
		t.Errorf("generate without store = %d, want 404", w.Code)
	}

	f.do(t, http.MethodPost, "/api/store/submit", token, storeBody)

	w := f.do(t, http.MethodPost, "/api/solution/generate", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/solution/list?limit=1", token, "")
	var solutions []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	decode(t, w, &solutions)
	if len(solutions) != 1 || solutions[0].ID == "" {
		t.Errorf("solutions = %+v", solutions)
	}

	w = f.do(t, http.MethodPost, "/api/chat/conversation", token, `{"message":"점심 매출을 올리고 싶어요"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d: %s", w.Code, w.Body.String())
	}
	var reply struct {
		Answer    string `json:"answer"`
		User      string `json:"user"`
		SessionID string `json:"session_id"`
	}
	decode(t, w, &reply)
	if reply.Answer == "" || reply.User != ownerEmail || reply.SessionID == "" {
		t.Errorf("reply = %+v", reply)
	}

	// la session ouverte contient les recommandations enregistrées
	last := f.generator.Requests[f.generator.Calls()-1]
	if !strings.Contains(last.System, "점심 세트") {
		t.Error("chat session does not carry the stored solutions")
	}

	if w := f.do(t, http.MethodPost, "/api/chat/conversation", token, `{"message":"  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/api/chat/reset", token, ""); w.Code != http.StatusOK {
		t.Errorf("reset status = %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/api/user/signout", token, ""); w.Code != http.StatusOK {
		t.Errorf("signout status = %d", w.Code)
	}
}

func TestAPI_SolutionsUnusableResponse(t *testing.T) {
	f := setupAPI(t, salesDataset(t))
	f.generator.Responses = []string{"매출을 올리려면 다양한 방법이 있습니다."}
	token := f.signedIn(t)
	f.do(t, http.MethodPost, "/api/store/submit", token, storeBody)

	w := f.do(t, http.MethodPost, "/api/solution/generate", token, "")
	if w.Code != http.StatusInternalServerError && w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 5xx", w.Code)
	}
}
