package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/api"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/news"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/reportcache"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

const testSecret = "test-secret"

type memoryRules struct {
	rules  []domain.KeywordRule
	nextID int
}

func (m *memoryRules) List(_ context.Context, enabledOnly bool) ([]domain.KeywordRule, error) {
	out := []domain.KeywordRule{}
	for _, r := range m.rules {
		if enabledOnly && !r.Enabled {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryRules) Create(_ context.Context, r *domain.KeywordRule) error {
	m.nextID++
	r.ID = m.nextID
	if r.Scope == "" {
		r.Scope = domain.ScopeAll
	}
	m.rules = append(m.rules, *r)
	return nil
}

func (m *memoryRules) Delete(_ context.Context, id int) error {
	for i, r := range m.rules {
		if r.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return database.ErrRuleNotFound
}

type fakeHistory struct {
	items  []domain.ClassificationHistory
	counts []domain.ReasonCount
	err    error
}

func (f *fakeHistory) List(context.Context, int, int) ([]domain.ClassificationHistory, error) {
	return f.items, f.err
}

func (f *fakeHistory) Count(context.Context) (int, error) { return len(f.items), f.err }

func (f *fakeHistory) CountByReason(context.Context) ([]domain.ReasonCount, error) {
	return f.counts, f.err
}

type fakeNews struct {
	result *news.Result
	err    error
	data   []byte
}

func (f *fakeNews) Collect(context.Context, news.Request) (*news.Result, error) {
	return f.result, f.err
}

func (f *fakeNews) Download(_ context.Context, jobID string) ([]byte, string, error) {
	if f.data == nil {
		return nil, "", reportcache.ErrNotFound
	}
	return f.data, "naver_news_20261019_0930_" + jobID + ".xlsx", nil
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router   *gin.Engine
	rules    *memoryRules
	keywords *classifier.KeywordClassifier
}

func newTestServer(t *testing.T, secret string, opts ...api.HandlerOption) *testServer {
	t.Helper()

	engine, err := classifier.New(classifier.Config{}, nil)
	require.NoError(t, err)
	batch := processor.NewBatchProcessor(engine, 2, nil)
	filler, err := workbook.NewFiller(workbook.FillerConfig{Sheets: []string{"CP"}}, batch, nil)
	require.NoError(t, err)

	rules := &memoryRules{}
	keywords := classifier.NewKeywordClassifier(classifier.DefaultKeywordRules(), nil)

	base := []api.HandlerOption{api.WithFiller(filler), api.WithRules(rules, keywords)}
	h := api.NewHandler(engine, batch, logger.NewNop(), append(base, opts...)...)

	router := gin.New()
	router.Use(api.RequestIDLoggerMiddleware(logger.NewNop()))
	api.SetupRoutes(router, h, api.RouteOptions{
		ServiceName:    "market-classifier",
		ServiceVersion: "test",
		JWTSecret:      secret,
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		Checks: map[string]api.ReadinessCheck{
			"classifier": func(context.Context) error { return nil },
		},
	})
	return &testServer{router: router, rules: rules, keywords: keywords}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestClassify(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/v1/classify", api.ClassifyRequest{
		Text: "Korea and China expand DRAM production lines",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[api.ClassifyResponse](t, w)
	assert.Equal(t, "Global Semiconductor market", resp.Category)
	assert.Equal(t, domain.ReasonSemiconductorPriority, resp.Reason)
	assert.Equal(t, "Global", resp.Geography)
	assert.Equal(t, "Semiconductor", resp.Domain)
}

func TestClassify_SourceHintAndUnclassified(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/v1/classify", api.ClassifyRequest{
		Text: "Quarterly briefing from the analyst team", SourceHint: "DSCC",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ReasonSourceHintDisplay, decode[api.ClassifyResponse](t, w).Reason)

	w = s.do(t, http.MethodPost, "/api/v1/classify", api.ClassifyRequest{
		Text: "Quarterly briefing from the analyst team", SourceHint: "CP",
	})
	resp := decode[api.ClassifyResponse](t, w)
	assert.Equal(t, domain.ReasonNoDomainMatch, resp.Reason)
	assert.Empty(t, resp.Geography)
	assert.Empty(t, resp.Domain)
}

func TestClassify_RejectsMissingText(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/v1/classify", map[string]string{"source_hint": "CP"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassifyBatch_KeepsOrder(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/v1/classify/batch", api.BatchClassifyRequest{Items: []api.BatchItem{
		{ID: "a", Text: "iPhone sales jumped 20% this quarter"},
		{ID: "b", Text: "US electric vehicle sales rose 8% YoY"},
		{ID: "c", Text: "Korea and China expand DRAM production lines"},
	}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[api.BatchClassifyResponse](t, w)
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, "a", resp.Results[0].ID)
	assert.Equal(t, "Global Smartphone market", resp.Results[0].Category)
	assert.Equal(t, "b", resp.Results[1].ID)
	assert.Equal(t, "US Electric Vehicle market", resp.Results[1].Category)
	assert.Equal(t, "c", resp.Results[2].ID)
	assert.Equal(t, "Global Semiconductor market", resp.Results[2].Category)
}

func TestSimulate(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/v1/classify/simulate", api.SimulateRequest{
		Texts: []string{"iPhone sales jumped 20% this quarter", "Quarterly briefing from the analyst team"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[api.SimulateResponse](t, w)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Global Smartphone market", resp.Rows[0].Category)
	assert.Equal(t, domain.ReasonNoDomainMatch, resp.Rows[1].Reason)
}

func TestTaxonomy(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	resp := decode[api.TaxonomyResponse](t, s.do(t, http.MethodGet, "/api/v1/taxonomy", nil))
	assert.Equal(t, domain.LocaleEnglish, resp.Locale)
	assert.Len(t, resp.Geographies, domain.NumGeographies)
	assert.Len(t, resp.Domains, domain.NumDomains)
	assert.Len(t, resp.Whitelist, domain.NumGeographies*domain.NumDomains+1)
	assert.Contains(t, resp.Whitelist, "US Electric Vehicle market")
	assert.Equal(t, domain.ReasonCodes, resp.ReasonCodes)

	ko := decode[api.TaxonomyResponse](t, s.do(t, http.MethodGet, "/api/v1/taxonomy?locale=ko", nil))
	assert.Equal(t, domain.LocaleKorean, ko.Locale)
	assert.Equal(t, domain.Whitelist(domain.LocaleKorean), ko.Whitelist)
}

func TestFillWorkbook(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "CP_10"))
	require.NoError(t, wb.SetCellValue("CP_10", "B5", 1))
	require.NoError(t, wb.SetCellValue("CP_10", "E5", "Korea and China expand DRAM production lines"))
	var xlsx bytes.Buffer
	require.NoError(t, wb.Write(&xlsx))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "monthly.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workbook/fill", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-Rows-Filled"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filled_monthly.xlsx")

	out, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer out.Close()
	got, err := out.GetCellValue("CP_10", "G5")
	require.NoError(t, err)
	assert.Equal(t, "Global Semiconductor market", got)
}

func TestFillWorkbook_RejectsNonWorkbook(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a zip"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workbook/fill", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func xlsxBytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestUpdateMaster(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	checked := excelize.NewFile()
	require.NoError(t, checked.SetSheetName("Sheet1", "1월 총평"))
	for _, sheet := range []string{"CP_1_work", "IDC_1_work"} {
		_, err := checked.NewSheet(sheet)
		require.NoError(t, err)
	}
	for _, row := range []string{"5", "6", "7", "8"} {
		require.NoError(t, checked.SetSheetRow("1월 총평", "E"+row, &[]any{1, 3, 2}))
	}
	require.NoError(t, checked.SetCellValue("IDC_1_work", "M7", 4))
	require.NoError(t, checked.SetCellValue("IDC_1_work", "N7", "글로벌 스마트폰 시장"))

	master := excelize.NewFile()
	require.NoError(t, master.SetSheetName("Sheet1", workbook.TierSheet))
	_, err := master.NewSheet(workbook.CoverageSheet)
	require.NoError(t, err)
	require.NoError(t, master.SetCellValue(workbook.CoverageSheet, "A5", "Jan-26"))
	files := map[string][]byte{
		"checked": xlsxBytes(t, checked),
		"master":  xlsxBytes(t, master),
	}

	upload := func(period string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for field, data := range files {
			part, err := mw.CreateFormFile(field, field+".xlsx")
			require.NoError(t, err)
			_, err = part.Write(data)
			require.NoError(t, err)
		}
		require.NoError(t, mw.WriteField("period", period))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/workbook/master", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("Jan-26")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Jan-26", w.Header().Get("X-Period"))
	assert.Equal(t, "AA", w.Header().Get("X-Tier-Column"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "master.xlsx")

	out, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer out.Close()
	got, err := out.GetCellValue(workbook.TierSheet, "AA4")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	got, err = out.GetCellValue(workbook.CoverageSheet, "H5")
	require.NoError(t, err)
	assert.Equal(t, "4", got)

	assert.Equal(t, http.StatusBadRequest, upload("Feb-26").Code)
	assert.Equal(t, http.StatusBadRequest, upload("").Code)
}

func TestRules_CreateReloadsKeywords(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	before := s.keywords.Classify("Boston Dynamics walker", "", news.Source)
	assert.Equal(t, domain.KeywordOther, before.Category)

	w := s.do(t, http.MethodPost, "/api/v1/rules", api.CreateRuleRequest{
		Category: domain.KeywordRobot, Keyword: "boston dynamics",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[domain.KeywordRule](t, w)
	assert.Equal(t, 1, created.ID)
	assert.True(t, created.Enabled)

	after := s.keywords.Classify("Boston Dynamics walker", "", news.Source)
	assert.Equal(t, domain.KeywordRobot, after.Category)

	list := decode[api.RulesListResponse](t, s.do(t, http.MethodGet, "/api/v1/rules", nil))
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/rules/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/rules/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/api/v1/rules/abc", nil).Code)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	hist := &fakeHistory{
		items: []domain.ClassificationHistory{{ID: "h1", Category: "Global TV market", ReasonCode: "DOMAIN_TV"}},
		counts: []domain.ReasonCount{
			{ReasonCode: "DOMAIN_TV", Count: 4},
			{ReasonCode: "NO_DOMAIN_MATCH", Count: 2},
		},
	}
	s := newTestServer(t, "", api.WithHistory(hist))

	list := decode[api.HistoryListResponse](t, s.do(t, http.MethodGet, "/api/v1/history?limit=9999&offset=-3", nil))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 500, list.Limit)
	assert.Equal(t, 0, list.Offset)

	stats := decode[api.HistoryStatsResponse](t, s.do(t, http.MethodGet, "/api/v1/history/stats", nil))
	assert.Equal(t, 6, stats.Total)
	assert.Len(t, stats.ByReason, 2)
}

func TestHistory_NotConfigured(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/api/v1/history", nil).Code)
}

func TestNews(t *testing.T) {
	t.Parallel()
	fn := &fakeNews{
		result: &news.Result{JobID: "0123456789ab", Stats: news.Stats{CompanyTotal: map[string]int{"LG": 2}}},
		data:   []byte("xlsx"),
	}
	s := newTestServer(t, "", api.WithNews(fn))

	w := s.do(t, http.MethodPost, "/api/v1/news/collect", news.Request{Companies: "LG", StartDate: "2026-10-01", EndDate: "2026-10-02"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[api.CollectResponse](t, w)
	assert.Equal(t, "/api/v1/news/download/0123456789ab", resp.DownloadURL)
	assert.Equal(t, 2, resp.Stats.CompanyTotal["LG"])

	w = s.do(t, http.MethodGet, resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "naver_news_20261019_0930_0123456789ab.xlsx")
}

func TestNews_ErrorMapping(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		err  error
		code int
	}{
		{news.ErrNoCompanies, http.StatusBadRequest},
		{news.ErrInvalidPeriod, http.StatusBadRequest},
		{errors.New("upstream exploded"), http.StatusBadGateway},
	} {
		s := newTestServer(t, "", api.WithNews(&fakeNews{err: tc.err}))
		w := s.do(t, http.MethodPost, "/api/v1/news/collect", news.Request{Companies: "LG"})
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}

	s := newTestServer(t, "", api.WithNews(&fakeNews{}))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/news/download/ffffffffffff", nil).Code)
}

func TestAuth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, testSecret)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/taxonomy", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", nil).Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, api.Claims{
		Sub: "analyst",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", http.NoBody)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrong, err := jwt.NewWithClaims(jwt.SigningMethodHS256, api.Claims{Sub: "x"}).SignedString([]byte("other"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+wrong)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	live := decode[api.HealthResponse](t, s.do(t, http.MethodGet, "/health/live", nil))
	assert.Equal(t, api.StatusHealthy, live.Status)
	assert.Equal(t, "market-classifier", live.Service)

	w := s.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.StatusHealthy, decode[api.HealthResponse](t, w).Checks["classifier"])

	assert.True(t, strings.HasPrefix(s.do(t, http.MethodGet, "/metrics", nil).Body.String(), "# metrics"))
}
