package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/billing"
	"github.com/darasahq/darasa/core/user"
)

func Test_billingApi_planCatalog(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name:     "plans are public",
			path:     "/v1/billing/plans",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, billing.AllPlans()),
		},
		{
			name:     "features are public",
			path:     "/v1/billing/features",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, billing.AllFeatures()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_billingApi_retrieveSubscription(t *testing.T) {
	app := setup(t)

	tnt := createTenant(t, "Shule Academy", "shule-academy", billing.TierBasic)
	student := createUser(t, "Jina Haki", "jhaki", "jhaki@darasa.test", "LokiCat!", tnt.ID, []user.Role{user.RoleStudent}, true)
	superAdmin := createUser(t, "Admin Mkuu", "admkuu", "admkuu@darasa.test", "LokiCat!", "", []user.Role{user.RoleSuperAdmin}, true)

	eng, err := tntSvc.Engine(tnt.ID)
	if err != nil {
		t.Fatalf("loading engine failed: %v", err)
	}
	wantSub := marchallObj(t, newSubscriptionResponse(eng))

	tests := []httpTest{
		{
			name:     "anonymous is rejected",
			path:     "/v1/billing/subscription",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "member sees own tenant subscription",
			path:     "/v1/billing/subscription",
			token:    getToken(t, student),
			wantCode: http.StatusOK,
			wantData: wantSub,
		},
		{
			name:     "member cannot target another tenant",
			path:     "/v1/billing/subscription?tenant_id=" + tnt.ID,
			token:    getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "super admin without tenant",
			path:     "/v1/billing/subscription",
			token:    getToken(t, superAdmin),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "super admin targets a tenant",
			path:     "/v1/billing/subscription?tenant_id=" + tnt.ID,
			token:    getToken(t, superAdmin),
			wantCode: http.StatusOK,
			wantData: wantSub,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_billingApi_aiQueryQuota(t *testing.T) {
	app := setup(t)

	tnt := createTenant(t, "Shule Academy", "shule-academy", billing.TierBasic)
	student := createUser(t, "Jina Haki", "jhaki", "jhaki@darasa.test", "LokiCat!", tnt.ID, []user.Role{user.RoleStudent}, true)
	token := getToken(t, student)

	limit := billing.MustPlanFor(billing.TierBasic).DailyAIQueries
	for i := 1; i <= limit; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/subscription/ai-queries", token)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("query %d failed! code = %v; body %v", i, rec.Code, rec.Body.String())
		}
		var res AIQueryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("failed to unmarshal AIQueryResponse: %v", err)
		}
		if res.Used != i || res.Remaining != limit-i {
			t.Errorf("query %d: got used=%d remaining=%d; want used=%d remaining=%d",
				i, res.Used, res.Remaining, i, limit-i)
		}
	}

	// quota exhausted; further queries are rejected without mutation
	for i := 0; i < 2; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/subscription/ai-queries", token)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusTooManyRequests,
			wantData: marchallObj(t, httpErr{Error: "daily AI query limit reached"}),
		}
		checkCodeAndData(t, tt, rec)
	}

	eng, err := tntSvc.Engine(tnt.ID)
	if err != nil {
		t.Fatalf("loading engine failed: %v", err)
	}
	if used := eng.UsedQueries(); used != limit {
		t.Errorf("got used=%d after rejections; want %d", used, limit)
	}
}

func Test_billingApi_setTier(t *testing.T) {
	app := setup(t)

	tnt := createTenant(t, "Shule Academy", "shule-academy", billing.TierBasic)
	student := createUser(t, "Jina Haki", "jhaki", "jhaki@darasa.test", "LokiCat!", tnt.ID, []user.Role{user.RoleStudent}, true)
	superAdmin := createUser(t, "Admin Mkuu", "admkuu", "admkuu@darasa.test", "LokiCat!", "", []user.Role{user.RoleSuperAdmin}, true)

	tests := []httpTest{
		{
			name:     "member cannot change tier",
			path:     "/v1/billing/subscription/tier",
			token:    getToken(t, student),
			body:     []byte(`{"tier": "pro"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "invalid tier is rejected",
			path:     "/v1/billing/subscription/tier?tenant_id=" + tnt.ID,
			token:    getToken(t, superAdmin),
			body:     []byte(`{"tier": "platinum"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: billing.ErrInvalidTier.Error()}),
		},
		{
			name:     "super admin upgrades tenant",
			path:     "/v1/billing/subscription/tier?tenant_id=" + tnt.ID,
			token:    getToken(t, superAdmin),
			body:     []byte(`{"tier": "pro"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
			var res SubscriptionResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("failed to unmarshal SubscriptionResponse: %v", err)
			}
			if res.Tier != billing.TierPro {
				t.Errorf("got tier %q; want %q", res.Tier, billing.TierPro)
			}
			if want := billing.MustPlanFor(billing.TierPro).DailyAIQueries; res.Limit != want {
				t.Errorf("got limit %d; want %d", res.Limit, want)
			}
		})
	}

	// the tenant row reflects the new tier too
	got, err := tntSvc.GetByID(tnt.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.Tier != billing.TierPro {
		t.Errorf("got tenant tier %q; want %q", got.Tier, billing.TierPro)
	}
}

func Test_billingApi_featureCheck(t *testing.T) {
	app := setup(t)

	tnt := createTenant(t, "Shule Academy", "shule-academy", billing.TierBasic)
	student := createUser(t, "Jina Haki", "jhaki", "jhaki@darasa.test", "LokiCat!", tnt.ID, []user.Role{user.RoleStudent}, true)
	token := getToken(t, student)

	tests := []httpTest{
		{
			name:     "basic tier includes attendance",
			path:     "/v1/billing/subscription/features/attendance",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, FeatureCheckResponse{Feature: billing.FeatureAttendance, Enabled: true}),
		},
		{
			name:     "basic tier excludes hostel management",
			path:     "/v1/billing/subscription/features/hostel_management",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, FeatureCheckResponse{Feature: billing.FeatureHostelManagement, Enabled: false}),
		},
		{
			name:     "unknown feature",
			path:     "/v1/billing/subscription/features/time_travel",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_billingApi_resetDailyQueries(t *testing.T) {
	app := setup(t)

	tnt := createTenant(t, "Shule Academy", "shule-academy", billing.TierBasic)
	admin := createUser(t, "Mwalimu Mkuu", "mwmkuu", "mwmkuu@darasa.test", "LokiCat!", tnt.ID, []user.Role{user.RolePrincipal}, true)
	token := getToken(t, admin)

	for i := 0; i < 3; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/subscription/ai-queries", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("increment failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/billing/subscription/reset", token)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var res SubscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to unmarshal SubscriptionResponse: %v", err)
	}
	if res.Used != 0 {
		t.Errorf("got used=%d after reset; want 0", res.Used)
	}
}
