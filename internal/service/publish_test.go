package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/config"
	"github.com/deepak-sorigin/qn-backend-test/internal/models"
	"github.com/deepak-sorigin/qn-backend-test/internal/service/qp"
)

// memAdvertisers is an in-memory AdvertiserRepository.
type memAdvertisers struct {
	mu   sync.Mutex
	next int
	rows map[string]models.Advertiser
}

func newMemAdvertisers() *memAdvertisers {
	return &memAdvertisers{rows: make(map[string]models.Advertiser)}
}

func (r *memAdvertisers) Create(_ context.Context, advertiser *models.Advertiser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if advertiser.ID == "" {
		r.next++
		advertiser.ID = fmt.Sprintf("adv-%d", r.next)
	}
	r.rows[advertiser.ID] = *advertiser
	return nil
}

func (r *memAdvertisers) List(_ context.Context) ([]models.Advertiser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Advertiser, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memAdvertisers) GetByID(_ context.Context, id string) (*models.Advertiser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (r *memAdvertisers) Update(_ context.Context, advertiser *models.Advertiser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[advertiser.ID]; !ok {
		return ErrNotFound
	}
	r.rows[advertiser.ID] = *advertiser
	return nil
}

// memCampaigns is an in-memory CampaignRepository that re-reads the
// advertiser relation on every fetch, the way the database layer does.
type memCampaigns struct {
	mu          sync.Mutex
	next        int
	rows        map[string]models.Campaign
	advertisers *memAdvertisers
}

func newMemCampaigns(advertisers *memAdvertisers) *memCampaigns {
	return &memCampaigns{rows: make(map[string]models.Campaign), advertisers: advertisers}
}

func (r *memCampaigns) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	r.mu.Lock()
	if campaign.ID == "" {
		r.next++
		campaign.ID = fmt.Sprintf("cmp-%d", r.next)
	}
	row := *campaign
	row.Advertiser = nil
	row.LocationList = nil
	r.rows[campaign.ID] = row
	r.mu.Unlock()
	return r.GetByID(ctx, campaign.ID)
}

func (r *memCampaigns) List(_ context.Context) ([]models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Campaign, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memCampaigns) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	r.mu.Lock()
	row, ok := r.rows[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	advertiser, err := r.advertisers.GetByID(ctx, row.AdvertiserID)
	if err != nil {
		return nil, err
	}
	row.Advertiser = advertiser
	return &row, nil
}

func (r *memCampaigns) Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	r.mu.Lock()
	if _, ok := r.rows[campaign.ID]; !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	row := *campaign
	row.Advertiser = nil
	row.LocationList = nil
	r.rows[campaign.ID] = row
	r.mu.Unlock()
	return r.GetByID(ctx, campaign.ID)
}

// memIdentifiers is an in-memory qp.IdentifierStore.
type memIdentifiers struct {
	mu   sync.Mutex
	bags map[string]qp.IdentifierBag
}

func newMemIdentifiers() *memIdentifiers {
	return &memIdentifiers{bags: make(map[string]qp.IdentifierBag)}
}

func (s *memIdentifiers) Get(_ context.Context, entity qp.Entity, qpID int64) (qp.IdentifierBag, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bag, ok := s.bags[fmt.Sprintf("%s/%d", entity, qpID)]
	return bag, ok, nil
}

func (s *memIdentifiers) Put(_ context.Context, entity qp.Entity, qpID int64, bag qp.IdentifierBag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d", entity, qpID)
	if _, ok := s.bags[key]; !ok {
		s.bags[key] = bag
	}
	return nil
}

// fakeQpAPI emulates the aggregation API for one DV360 campaign.
type fakeQpAPI struct {
	mu    sync.Mutex
	calls map[string]int

	failGamePlan bool
	gamePlanGate chan struct{}
	nextLineItem int64
}

func newFakeQpAPI() *fakeQpAPI {
	return &fakeQpAPI{calls: make(map[string]int), nextLineItem: 500}
}

func (f *fakeQpAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeQpAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls[key]++
		f.mu.Unlock()

		switch {
		case key == "POST /advertisers":
			fmt.Fprint(w, `{"data":{"id":101}}`)
		case key == "PUT /advertisers/101":
			fmt.Fprint(w, `{"data":{"id":101}}`)
		case key == "GET /advertisers/101":
			fmt.Fprint(w, `{"data":{"platform_specific_info":{"DV360":{"advertiser":{"advertiserId":"dv-adv"}}}}}`)
		case key == "POST /campaigns":
			fmt.Fprint(w, `{"data":{"id":201}}`)
		case key == "PUT /campaigns/201":
			fmt.Fprint(w, `{"data":{"id":201}}`)
		case key == "GET /campaigns/201":
			fmt.Fprint(w, `{"data":{"platform_specific_info":{"DV360":{"campaign":{"campaignId":"dv-cmp"}}}}}`)
		case key == "POST /game-plan" || key == "PUT /game-plan/401":
			if f.gamePlanGate != nil {
				<-f.gamePlanGate
			}
			if f.failGamePlan {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message":"game plan rejected"}`)
				return
			}
			fmt.Fprint(w, `{"data":{"id":401}}`)
		case key == "POST /insertion-order":
			fmt.Fprint(w, `{"data":{"id":301}}`)
		case key == "PUT /insertion-order/301":
			fmt.Fprint(w, `{"data":{"id":301}}`)
		case key == "GET /insertion-order/301":
			fmt.Fprint(w, `{"data":{"platform_specific_info":{"DV360":{"insertionOrder":{"insertionOrderId":"dv-io"}}}}}`)
		case key == "POST /line-item":
			f.mu.Lock()
			f.nextLineItem++
			id := f.nextLineItem
			f.mu.Unlock()
			fmt.Fprintf(w, `{"data":{"id":%d}}`, id)
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/line-item/"):
			fmt.Fprint(w, `{"data":{}}`)
		case key == "POST /scripts/list":
			fmt.Fprint(w, `{"data":{"id":601}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"message":"no route for %s"}`, key)
		}
	})
}

func testPublishConfig() *config.Config {
	return &config.Config{
		Publish: config.PublishConfig{},
	}
}

// newPublishFixture wires a PublishService against the fake API with one
// DV360 display campaign stored.
func newPublishFixture(t *testing.T, api *fakeQpAPI) (*PublishService, *memCampaigns, string) {
	t.Helper()

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	advertisers := newMemAdvertisers()
	campaigns := newMemCampaigns(advertisers)

	advertiser := &models.Advertiser{
		DisplayName:   "Acme",
		BrandName:     "Cars",
		AdvertiserURL: "https://acme.example",
		EntityStatus:  models.StatusDraft,
		GeographicDetails: models.GeographicDetails{
			TimeZone:  models.FilterItem{Label: "EST", Value: "America/Toronto"},
			Currency:  models.FilterItem{Label: "CAD", Value: "CAD"},
			Locations: models.ExclusionItem{Label: "Canada", TTDValue: "ca", DV360Value: "2124"},
		},
	}
	require.NoError(t, advertisers.Create(context.Background(), advertiser))

	campaign := &models.Campaign{
		AdvertiserID: advertiser.ID,
		DisplayName:  "Summer",
		BillingCode:  "BC01",
		Language:     "English",
		EntityStatus: models.StatusDraft,
		Goal:         models.FilterItem{Label: "Awareness", Value: "AWARENESS"},
		Channel:      models.FilterItems{{Label: "Display", Value: "Display"}},
		Platforms:    models.FilterItems{{Label: "DV360", Value: "DV360"}},
		Flights: models.Flights{{
			From: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		}},
		GamePlan: &models.GamePlanDetails{
			Kpi1Name:  "CPC",
			Kpi1Value: "1.5",
			Rate:      2.5,
			Budget:    1000,
			Format:    models.FilterItems{{Label: "Display", Value: "DIS"}},
		},
		ContentThemes: &models.ContentThemes{
			KeywordsFromAdvertiser: []string{"suv", "hybrid"},
			KeywordsFromCategory:   []string{"hybrid"},
		},
		IOTarget: &models.IOTarget{
			LimitFrequency: models.LimitFrequency{
				Frequency:        3,
				ExposerPer:       1,
				ExposerFrequency: models.FilterItem{Label: "Days", Value: "TIME_UNIT_DAYS"},
			},
			TotalMediaCost: 15,
			DeviceTargeting: models.FilterItems{
				{Label: "PC", Value: "1"},
				{Label: "Mobile", Value: "2"},
				{Label: "Tablet", Value: "3"},
				{Label: "Connected TV", Value: "4"},
			},
			Viewability: 70,
		},
		DemographicInformation: models.DemographicInformation{
			Demographic: models.Demographic{
				From:   25,
				To:     54,
				Gender: models.FilterItem{Label: "Female", Value: "Female"},
			},
		},
		Targets: &models.TargetGroups{
			Audience: []models.TargetSection{{
				Name:     "Auto intenders",
				Platform: "DV360",
				Type:     "CAT",
				Targets: []models.RetoolTarget{{
					Platform:             "DV360",
					Type:                 "CAT",
					FullName:             "Auto > Intenders",
					LineItemNameVariable: "AUTO",
					PlatformID:           "1234",
				}},
			}},
		},
	}
	created, err := campaigns.Create(context.Background(), campaign)
	require.NoError(t, err)

	client := qp.NewClient(server.URL, "test-token", zap.NewNop())
	resolver := qp.NewResolver(client, newMemIdentifiers(), zap.NewNop()).
		WithTiming(time.Millisecond, 250*time.Millisecond)

	svc := NewPublishService(testPublishConfig(), campaigns, advertisers, client, resolver, zap.NewNop())
	return svc, campaigns, created.ID
}

func TestPublishCampaignEndToEnd(t *testing.T) {
	api := newFakeQpAPI()
	svc, campaigns, id := newPublishFixture(t, api)

	published, err := svc.Publish(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, published.EntityStatus)
	assert.Equal(t, int64(201), published.QpID)
	assert.Equal(t, int64(401), published.QpGamePlanID)
	assert.Equal(t, models.StatusPublished, published.Advertiser.EntityStatus)
	assert.Equal(t, int64(101), published.Advertiser.QpID)

	require.Len(t, published.InsertionOrders, 1)
	assert.Equal(t, models.InsertionOrderRecord{
		Platform:           "DV360",
		Format:             "DIS",
		QpInsertionOrderID: 301,
	}, published.InsertionOrders[0])

	// All four devices collapse into one OMN bucket: one keyword line item
	// and one category line item.
	require.Len(t, published.LineItems, 2)
	assert.Equal(t, qp.ContentThemeKeyword, published.LineItems[0].Keyword)
	assert.Equal(t, "OMN", published.LineItems[0].Device)
	assert.Equal(t, "Auto > Intenders", published.LineItems[1].Keyword)

	assert.Equal(t, 1, api.count("POST /advertisers"))
	assert.Equal(t, 1, api.count("POST /campaigns"))
	assert.Equal(t, 1, api.count("POST /game-plan"))
	assert.Equal(t, 1, api.count("POST /insertion-order"))
	assert.Equal(t, 2, api.count("POST /line-item"))

	// Progress survived in storage, not only on the returned copy.
	stored, err := campaigns.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.EntityStatus)
	assert.Len(t, stored.LineItems, 2)
}

func TestPublishSecondRunUpdatesInsteadOfCreating(t *testing.T) {
	api := newFakeQpAPI()
	svc, _, id := newPublishFixture(t, api)

	_, err := svc.Publish(context.Background(), id)
	require.NoError(t, err)

	republished, err := svc.Publish(context.Background(), id)
	require.NoError(t, err)

	// Remote entities are updated in place, never duplicated.
	assert.Equal(t, 1, api.count("POST /advertisers"))
	assert.Equal(t, 1, api.count("PUT /advertisers/101"))
	assert.Equal(t, 1, api.count("POST /campaigns"))
	assert.Equal(t, 1, api.count("PUT /campaigns/201"))
	assert.Equal(t, 1, api.count("POST /game-plan"))
	assert.Equal(t, 1, api.count("PUT /game-plan/401"))
	assert.Equal(t, 1, api.count("POST /insertion-order"))
	assert.Equal(t, 1, api.count("PUT /insertion-order/301"))
	assert.Equal(t, 2, api.count("POST /line-item"))
	assert.Equal(t, 1, api.count("PUT /line-item/501"))
	assert.Equal(t, 1, api.count("PUT /line-item/502"))

	assert.Len(t, republished.InsertionOrders, 1)
	assert.Len(t, republished.LineItems, 2)
	assert.Equal(t, models.StatusPublished, republished.EntityStatus)
}

func TestPublishCampaignWithoutOptionalSections(t *testing.T) {
	api := newFakeQpAPI()
	svc, campaigns, id := newPublishFixture(t, api)

	stored, err := campaigns.GetByID(context.Background(), id)
	require.NoError(t, err)
	stored.GamePlan = nil
	stored.IOTarget = nil
	stored.Flights = nil
	stored.Channel = nil
	_, err = campaigns.Update(context.Background(), stored)
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), id)
	require.NoError(t, err)

	// The sparse campaign still reaches the remote advertiser, campaign and
	// game plan; without formats there is nothing beneath the game plan.
	assert.Equal(t, int64(201), published.QpID)
	assert.Equal(t, int64(401), published.QpGamePlanID)
	assert.Equal(t, models.StatusPublishRequested, published.EntityStatus)
	assert.Empty(t, published.InsertionOrders)
	assert.Empty(t, published.LineItems)
	assert.Equal(t, 0, api.count("POST /insertion-order"))
	assert.Equal(t, 0, api.count("POST /line-item"))
}

func TestPublishFailureRetainsProgress(t *testing.T) {
	api := newFakeQpAPI()
	api.failGamePlan = true
	svc, campaigns, id := newPublishFixture(t, api)

	_, err := svc.Publish(context.Background(), id)
	var apiErr *qp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "game plan rejected", apiErr.Message)

	stored, err := campaigns.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublishFailed, stored.EntityStatus)
	// Remote ids gathered before the failure stay behind for the retry.
	assert.Equal(t, int64(201), stored.QpID)
	assert.Equal(t, int64(101), stored.Advertiser.QpID)
	assert.Equal(t, int64(0), stored.QpGamePlanID)
}

func TestPublishUnknownCampaign(t *testing.T) {
	api := newFakeQpAPI()
	svc, _, _ := newPublishFixture(t, api)

	_, err := svc.Publish(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishRejectsConcurrentRun(t *testing.T) {
	api := newFakeQpAPI()
	api.gamePlanGate = make(chan struct{})
	svc, _, id := newPublishFixture(t, api)

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Publish(context.Background(), id)
		firstDone <- err
	}()

	// Wait until the first run is inside the pipeline, parked on the gate.
	require.Eventually(t, func() bool {
		return api.count("POST /game-plan") == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err := svc.Publish(context.Background(), id)
	assert.ErrorIs(t, err, ErrPublishInProgress)

	close(api.gamePlanGate)
	require.NoError(t, <-firstDone)

	// Once the first run finishes the guard is released again.
	_, err = svc.Publish(context.Background(), id)
	require.NoError(t, err)
}
