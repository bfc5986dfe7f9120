package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
	"github.com/seedplatform/control-interface/internal/series"
	"github.com/seedplatform/control-interface/internal/service"
	"github.com/seedplatform/control-interface/internal/session"
)

type stubAuth struct {
	sessions  map[string]session.Session
	loginSess session.Session
	loginErr  error
	loggedOut []string
}

func (s *stubAuth) Login(_ context.Context, email, password string) (session.Session, error) {
	if s.loginErr != nil {
		return session.Session{}, s.loginErr
	}
	return s.loginSess, nil
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (session.Session, error) {
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return session.Session{}, service.ErrUnauthorized
}

type stubConsole struct {
	identitiesAddress string
	identitiesPage    string
	detailID          string
	detailErr         error
	optedOut          []string
	listFilters       url.Values
	changeSubID       string
	changeSet         int
	changeLang        string
	metricNames       []string
	metricParams      url.Values
	seriesMetric      string
	seriesKind        series.Kind
	seriesAt          time.Time
	seriesShift       int
	lastMetric        string
}

func emptyPage[T any]() *pager.NoCountPage[T] {
	return &pager.NoCountPage[T]{Number: 1, Size: 30}
}

func (s *stubConsole) Identities(_ context.Context, address, page string) (*pager.NoCountPage[model.Identity], error) {
	s.identitiesAddress = address
	s.identitiesPage = page
	return &pager.NoCountPage[model.Identity]{
		Items:   []model.Identity{{ID: "id-001"}},
		Number:  2,
		Size:    30,
		HasMore: true,
	}, nil
}

func (s *stubConsole) IdentityDetail(_ context.Context, id, _, _ string) (service.IdentityDetail, error) {
	s.detailID = id
	if s.detailErr != nil {
		return service.IdentityDetail{}, s.detailErr
	}
	return service.IdentityDetail{
		Identity: model.Identity{ID: id},
		Outbound: emptyPage[model.OutboundMessage](),
		Inbound:  emptyPage[model.InboundMessage](),
	}, nil
}

func (s *stubConsole) OptOutIdentity(_ context.Context, id string) error {
	s.optedOut = append(s.optedOut, id)
	return nil
}

func (s *stubConsole) Registrations(_ context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Registration], error) {
	s.listFilters = filters
	return emptyPage[model.Registration](), nil
}

func (s *stubConsole) Changes(_ context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Change], error) {
	s.listFilters = filters
	return emptyPage[model.Change](), nil
}

func (s *stubConsole) Subscriptions(_ context.Context, filters url.Values, page string) (*pager.NoCountPage[model.Subscription], error) {
	s.listFilters = filters
	return emptyPage[model.Subscription](), nil
}

func (s *stubConsole) ChangeSubscription(_ context.Context, subscriptionID string, messageSetID int, language string) error {
	s.changeSubID = subscriptionID
	s.changeSet = messageSetID
	s.changeLang = language
	return nil
}

func (s *stubConsole) MessageSets(context.Context) ([]model.MessageSet, error) {
	return []model.MessageSet{{ID: 1, ShortName: "prebirth.mother.text.10_42"}}, nil
}

func (s *stubConsole) Metrics(_ context.Context, names []string, params url.Values) ([]service.MetricObject, error) {
	s.metricNames = names
	s.metricParams = params
	if len(names) == 0 {
		return nil, service.ErrInvalidInput
	}
	objects := make([]service.MetricObject, 0, len(names))
	for _, name := range names {
		objects = append(objects, service.MetricObject{Key: name, Values: []model.Point{{X: 1, Y: 2}}})
	}
	return objects, nil
}

func (s *stubConsole) Series(_ context.Context, metric string, kind series.Kind, at time.Time, shift int) (series.Data, error) {
	s.seriesMetric = metric
	s.seriesKind = kind
	s.seriesAt = at
	s.seriesShift = shift
	return series.Data{Key: metric, Kind: kind}, nil
}

func (s *stubConsole) LastValue(_ context.Context, metric string) (float64, error) {
	s.lastMetric = metric
	return 2532.0, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func viewerSession(token string) session.Session {
	return session.Session{
		Token:       token,
		Email:       "op@example.org",
		Permissions: []model.Permission{{Type: ViewPermission}},
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newTestRouter(auth *stubAuth, console *stubConsole, store Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if store == nil {
		store = &stubPinger{}
	}
	Register(r, store, auth, console)
	return r
}

func do(r *gin.Engine, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Token " + token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestLogin(t *testing.T) {
	auth := &stubAuth{loginSess: viewerSession("tok-1")}
	r := newTestRouter(auth, &stubConsole{}, nil)

	w := do(r, http.MethodPost, "/login", gin.H{"email": "op@example.org", "password": "pw"}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "tok-1", body["token"])
	assert.Equal(t, "op@example.org", body["email"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, "tok-1", cookies[0].Value)
}

func TestLoginRejected(t *testing.T) {
	auth := &stubAuth{loginErr: service.ErrUnauthorized}
	r := newTestRouter(auth, &stubConsole{}, nil)

	w := do(r, http.MethodPost, "/login", gin.H{"email": "op@example.org", "password": "nope"}, nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w)["error"])
}

func TestLoginMalformedBody(t *testing.T) {
	r := newTestRouter(&stubAuth{}, &stubConsole{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	auth := &stubAuth{}
	r := newTestRouter(auth, &stubConsole{}, nil)

	w := do(r, http.MethodPost, "/logout", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tok-1"}, auth.loggedOut)
}

func TestAPIRequiresSession(t *testing.T) {
	r := newTestRouter(&stubAuth{}, &stubConsole{}, nil)

	w := do(r, http.MethodGet, "/api/v1/identities", nil, nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w)["error"])
}

func TestAPIRequiresViewPermission(t *testing.T) {
	sess := viewerSession("tok-1")
	sess.Permissions = []model.Permission{{Type: "ci:other"}}
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": sess}}
	r := newTestRouter(auth, &stubConsole{}, nil)

	w := do(r, http.MethodGet, "/api/v1/identities", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode(t, w)["error"])
}

func TestSessionFromCookie(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	r := newTestRouter(auth, &stubConsole{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/identities", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdentitiesList(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/identities?address=%2B27831234567&page=2", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "+27831234567", console.identitiesAddress)
	assert.Equal(t, "2", console.identitiesPage)

	body := decode(t, w)
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, true, body["has_next"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "id-001", items[0].(map[string]any)["id"])
}

func TestIdentityDetailNotFound(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{detailErr: client.ErrNotFound}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/identities/mother-01", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "mother-01", console.detailID)
	assert.Equal(t, "not_found", decode(t, w)["error"])
}

func TestOptOut(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodPost, "/api/v1/identities/mother-01/optout", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"mother-01"}, console.optedOut)
}

func TestRegistrationsForwardsFilters(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/registrations?stage=prebirth&page=3", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prebirth", console.listFilters.Get("stage"))
	assert.Empty(t, console.listFilters.Get("page"))
}

func TestChangeSubscription(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodPost, "/api/v1/subscriptions/sub-01",
		gin.H{"messageset": 2, "language": "eng_ZA"}, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sub-01", console.changeSubID)
	assert.Equal(t, 2, console.changeSet)
	assert.Equal(t, "eng_ZA", console.changeLang)
}

func TestMessageSets(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	r := newTestRouter(auth, &stubConsole{}, nil)

	w := do(r, http.MethodGet, "/api/v1/messagesets", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	sets := decode(t, w)["messagesets"].([]any)
	require.Len(t, sets, 1)
	assert.Equal(t, "prebirth.mother.text.10_42", sets[0].(map[string]any)["short_name"])
}

func TestMetric(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/metric?m=subscriptions.created.sum&m=registrations.created.sum&from=-30d",
		nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"subscriptions.created.sum", "registrations.created.sum"}, console.metricNames)
	assert.Equal(t, "-30d", console.metricParams.Get("from"))
	assert.Empty(t, console.metricParams["m"])

	objects := decode(t, w)["objects"].([]any)
	require.Len(t, objects, 2)
	assert.Equal(t, "subscriptions.created.sum", objects[0].(map[string]any)["key"])
}

func TestMetricLast(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/metric-last?metric=registrations.created.last", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "registrations.created.last", body["metric"])
	assert.Equal(t, 2532.0, body["value"])
}

func TestSeries(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/series?metric=subscriptions.created.sum&kind=week&date=2016-12-05&shift=-1",
		nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "subscriptions.created.sum", console.seriesMetric)
	assert.Equal(t, series.Week, console.seriesKind)
	assert.Equal(t, time.Date(2016, 12, 5, 0, 0, 0, 0, time.UTC), console.seriesAt)
	assert.Equal(t, -1, console.seriesShift)
}

func TestSeriesDefaultsToMonth(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	console := &stubConsole{}
	r := newTestRouter(auth, console, nil)

	w := do(r, http.MethodGet, "/api/v1/series?metric=subscriptions.created.sum", nil, authHeader("tok-1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, series.Month, console.seriesKind)
	assert.Zero(t, console.seriesShift)
}

func TestSeriesRejectsBadDate(t *testing.T) {
	auth := &stubAuth{sessions: map[string]session.Session{"tok-1": viewerSession("tok-1")}}
	r := newTestRouter(auth, &stubConsole{}, nil)

	w := do(r, http.MethodGet, "/api/v1/series?metric=m&date=yesterday", nil, authHeader("tok-1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiveness(t *testing.T) {
	r := newTestRouter(&stubAuth{}, &stubConsole{}, nil)

	w := do(r, http.MethodGet, "/live", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decode(t, w)["status"])
}

func TestReadiness(t *testing.T) {
	r := newTestRouter(&stubAuth{}, &stubConsole{}, &stubPinger{})

	w := do(r, http.MethodGet, "/ready", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessUnavailable(t *testing.T) {
	r := newTestRouter(&stubAuth{}, &stubConsole{}, &stubPinger{err: assert.AnError})

	w := do(r, http.MethodGet, "/ready", nil, nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decode(t, w)["status"])
}
