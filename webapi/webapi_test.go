package webapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/notifier"
	"github.com/mywatercloset/api/infra/provider/mockpayment"
	"github.com/mywatercloset/api/pkg/app"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain/property"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/repository"
	"github.com/mywatercloset/api/pkg/testutils"
	"github.com/mywatercloset/api/webapi"
	"github.com/stretchr/testify/suite"
)

const signingSecret = "whsec_test"

type APITestSuite struct {
	suite.Suite
	uow      repository.UnitOfWork
	gateway  *mockpayment.MockPaymentProvider
	app      *app.App
	fiber    *fiber.App
	booker   *user.User
	owner    *user.User
	stranger *user.User
	property *property.Property
}

func (s *APITestSuite) SetupTest() {
	t := s.T()
	s.uow = testutils.NewTestUoW(t)
	s.gateway = mockpayment.NewMockPaymentProvider(signingSecret)
	cfg := &config.App{
		Auth:             &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		PaymentProviders: &config.PaymentProviders{Stripe: &config.Stripe{Currency: "usd", SigningSecret: signingSecret}},
		Gateway:          &config.Gateway{Timeout: time.Second},
		Notify:           &config.Notify{FrontendURL: "https://app.example"},
		RateLimit:        &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
	}
	s.app = app.New(&app.Deps{
		Uow:             s.uow,
		EventBus:        testutils.NewRecordingBus(),
		PaymentProvider: s.gateway,
		Notifier:        notifier.NewLogNotifier(testutils.Logger()),
		Logger:          testutils.Logger(),
	}, cfg)
	s.fiber = webapi.SetupApp(s.app)

	s.booker = testutils.SeedUser(t, s.uow, user.RoleUser, false)
	s.owner = testutils.SeedUser(t, s.uow, user.RoleProvider, true)
	s.stranger = testutils.SeedUser(t, s.uow, user.RoleUser, false)
	s.property = testutils.SeedProperty(t, s.uow, s.owner.ID, 30)
}

func (s *APITestSuite) token(u *user.User) string {
	token, err := s.app.AuthService.GenerateToken(context.Background(), u)
	s.Require().NoError(err)
	return token
}

func (s *APITestSuite) do(method, path, body string, as *user.User) (int, map[string]any) {
	token := ""
	if as != nil {
		token = s.token(as)
	}
	resp := testutils.MakeRequest(s.T(), s.fiber, method, path, body, token)
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (s *APITestSuite) createBooking(minutes int) string {
	start := testutils.Now().Add(time.Hour)
	body := fmt.Sprintf(`{"propertyId":%q,"startTime":%q,"endTime":%q}`,
		s.property.ID, start.Format(time.RFC3339), start.Add(time.Duration(minutes)*time.Minute).Format(time.RFC3339))
	status, out := s.do(http.MethodPost, "/api/bookings", body, s.booker)
	s.Require().Equal(fiber.StatusCreated, status, out)
	return out["data"].(map[string]any)["id"].(string)
}

func (s *APITestSuite) webhook(payload mockpayment.Payload, signature string) int {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)
	if signature == "" {
		signature = mockpayment.Sign(body, signingSecret)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	resp, err := s.fiber.Test(req, 10000)
	s.Require().NoError(err)
	return resp.StatusCode
}

func (s *APITestSuite) TestCreateBooking_Pricing() {
	start := testutils.Now().Add(time.Hour)
	body := fmt.Sprintf(`{"propertyId":%q,"startTime":%q,"endTime":%q}`,
		s.property.ID, start.Format(time.RFC3339), start.Add(22*time.Minute).Format(time.RFC3339))
	status, out := s.do(http.MethodPost, "/api/bookings", body, s.booker)
	s.Require().Equal(fiber.StatusCreated, status)

	data := out["data"].(map[string]any)
	s.Equal("pending", data["status"])
	s.EqualValues(660, data["totalAmount"])
	s.EqualValues(99, data["platformFee"])
	s.EqualValues(561, data["providerPayout"])
}

func (s *APITestSuite) TestCreateBooking_Rejections() {
	start := testutils.Now().Add(time.Hour)
	inverted := fmt.Sprintf(`{"propertyId":%q,"startTime":%q,"endTime":%q}`,
		s.property.ID, start.Format(time.RFC3339), start.Add(-time.Minute).Format(time.RFC3339))
	status, out := s.do(http.MethodPost, "/api/bookings", inverted, s.booker)
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal("about:blank", out["type"])

	missing := fmt.Sprintf(`{"propertyId":%q,"startTime":%q,"endTime":%q}`,
		uuid.New(), start.Format(time.RFC3339), start.Add(time.Minute).Format(time.RFC3339))
	status, _ = s.do(http.MethodPost, "/api/bookings", missing, s.booker)
	s.Equal(fiber.StatusNotFound, status)

	status, _ = s.do(http.MethodPost, "/api/bookings", inverted, nil)
	s.Equal(fiber.StatusBadRequest, status, "missing token")
}

func (s *APITestSuite) TestPaymentAndWebhookFlow() {
	id := s.createBooking(22)
	body := fmt.Sprintf(`{"bookingId":%q}`, id)

	status, _ := s.do(http.MethodPost, "/api/stripe/create-payment-intent", body, s.stranger)
	s.Equal(fiber.StatusUnauthorized, status)

	status, out := s.do(http.MethodPost, "/api/stripe/create-payment-intent", body, s.booker)
	s.Require().Equal(fiber.StatusOK, status)
	s.EqualValues(660, out["amount"])
	s.NotEmpty(out["clientSecret"])

	_, again := s.do(http.MethodPost, "/api/stripe/create-payment-intent", body, s.booker)
	s.Equal(out["clientSecret"], again["clientSecret"])
	s.EqualValues(1, s.gateway.Creates())

	bookingID := uuid.MustParse(id)
	event := mockpayment.Payload{ID: "evt_1", Type: "payment_intent.succeeded", BookingID: bookingID}
	s.Equal(fiber.StatusBadRequest, s.webhook(event, "bad-signature"))
	s.Equal(fiber.StatusOK, s.webhook(event, ""))
	s.Equal(fiber.StatusOK, s.webhook(event, ""), "duplicate delivery")

	status, out = s.do(http.MethodGet, "/api/bookings/"+id, "", s.owner)
	s.Require().Equal(fiber.StatusOK, status)
	data := out["data"].(map[string]any)
	s.Equal("confirmed", data["status"])
	s.Len(data["accessCode"], 6)

	status, out = s.do(http.MethodGet, "/api/bookings/"+id+"/conversation", "", s.booker)
	s.Require().Equal(fiber.StatusOK, status)
	s.Len(out["data"].(map[string]any)["participants"], 2)

	status, _ = s.do(http.MethodGet, "/api/bookings/"+id, "", s.stranger)
	s.Equal(fiber.StatusForbidden, status)
}

func (s *APITestSuite) TestCancelByBooker_ThenConflict() {
	id := s.createBooking(15)

	status, out := s.do(http.MethodPost, "/api/bookings/"+id+"/cancel", `{"reason":"plans changed"}`, s.booker)
	s.Require().Equal(fiber.StatusOK, status)
	data := out["data"].(map[string]any)
	s.Equal("cancelled", data["status"])
	s.Equal("user", data["cancellation"].(map[string]any)["cancelledBy"])

	status, _ = s.do(http.MethodPost, "/api/bookings/"+id+"/cancel", "", s.booker)
	s.Equal(fiber.StatusConflict, status)
}

func (s *APITestSuite) TestOwnerLifecycleAndReview() {
	id := s.createBooking(10)
	s.Equal(fiber.StatusOK, s.webhook(mockpayment.Payload{
		ID: "evt_confirm", Type: "payment_intent.succeeded", BookingID: uuid.MustParse(id),
	}, ""))

	status, _ := s.do(http.MethodPost, "/api/bookings/"+id+"/check-in", "", s.booker)
	s.Equal(fiber.StatusForbidden, status, "booker cannot check in")

	for _, step := range []string{"check-in", "complete"} {
		status, _ = s.do(http.MethodPost, "/api/bookings/"+id+"/"+step, "", s.owner)
		s.Require().Equal(fiber.StatusOK, status, step)
	}

	review := fmt.Sprintf(`{"bookingId":%q,"rating":5,"comment":"spotless"}`, id)
	status, _ = s.do(http.MethodPost, "/api/reviews", review, s.booker)
	s.Equal(fiber.StatusCreated, status)
	status, _ = s.do(http.MethodPost, "/api/reviews", review, s.booker)
	s.Equal(fiber.StatusConflict, status)

	status, out := s.do(http.MethodGet, "/api/properties/"+s.property.ID.String()+"/reviews", "", nil)
	s.Require().Equal(fiber.StatusOK, status)
	s.Len(out["data"], 1)
}

func (s *APITestSuite) TestConversationMessages() {
	id := s.createBooking(10)
	s.Require().Equal(fiber.StatusOK, s.webhook(mockpayment.Payload{
		ID: "evt_msg", Type: "payment_intent.succeeded", BookingID: uuid.MustParse(id),
	}, ""))
	path := "/api/bookings/" + id + "/conversation/messages"

	status, out := s.do(http.MethodPost, path, `{"content":"On my way"}`, s.booker)
	s.Require().Equal(fiber.StatusCreated, status, out)
	messageID := out["data"].(map[string]any)["id"].(string)

	status, _ = s.do(http.MethodPost, path, `{"content":"Side door is open"}`, s.owner)
	s.Equal(fiber.StatusCreated, status)

	status, _ = s.do(http.MethodPost, path, `{"content":"let me in"}`, s.stranger)
	s.Equal(fiber.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, path, `{"content":""}`, s.booker)
	s.Equal(fiber.StatusBadRequest, status)

	status, _ = s.do(http.MethodPatch, path+"/"+messageID, `{"content":"On my way, 2 min"}`, s.owner)
	s.Equal(fiber.StatusForbidden, status, "only the sender edits")
	status, out = s.do(http.MethodPatch, path+"/"+messageID, `{"content":"On my way, 2 min"}`, s.booker)
	s.Require().Equal(fiber.StatusOK, status)
	s.Equal(true, out["data"].(map[string]any)["isEdited"])

	status, out = s.do(http.MethodGet, path, "", s.owner)
	s.Require().Equal(fiber.StatusOK, status)
	msgs := out["data"].([]any)
	s.Require().Len(msgs, 2)
	s.Equal("On my way, 2 min", msgs[0].(map[string]any)["content"])

	status, out = s.do(http.MethodGet, "/api/bookings/"+id+"/conversation", "", s.booker)
	s.Require().Equal(fiber.StatusOK, status)
	conv := out["data"].(map[string]any)
	s.EqualValues(2, conv["messageCount"])
	s.Equal("Side door is open", conv["lastMessage"].(map[string]any)["content"])

	status, _ = s.do(http.MethodGet, path, "", s.stranger)
	s.Equal(fiber.StatusForbidden, status)
}

func (s *APITestSuite) TestRefundRequiresPayment() {
	id := s.createBooking(10)
	s.Equal(fiber.StatusOK, s.webhook(mockpayment.Payload{
		ID: "evt_c", Type: "payment_intent.succeeded", BookingID: uuid.MustParse(id),
	}, ""))

	status, _ := s.do(http.MethodPost, "/api/bookings/"+id+"/refund", "", s.owner)
	s.Equal(fiber.StatusConflict, status)
}

func (s *APITestSuite) TestAuthEndpoints() {
	status, out := s.do(http.MethodPost, "/api/auth/register",
		`{"email":"new@example.com","password":"longenough","role":"provider"}`, nil)
	s.Require().Equal(fiber.StatusCreated, status)
	s.NotEmpty(out["data"].(map[string]any)["token"])

	status, _ = s.do(http.MethodPost, "/api/auth/register",
		`{"email":"new@example.com","password":"longenough"}`, nil)
	s.Equal(fiber.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/api/auth/register",
		`{"email":"boss@example.com","password":"longenough","role":"admin"}`, nil)
	s.Equal(fiber.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"longenough"}`, nil)
	s.Equal(fiber.StatusOK, status)
	status, _ = s.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"nope"}`, nil)
	s.Equal(fiber.StatusUnauthorized, status)
}

func (s *APITestSuite) TestConnectOnboarding() {
	host := testutils.SeedUser(s.T(), s.uow, user.RoleProvider, false)

	status, out := s.do(http.MethodPost, "/api/stripe/connect/onboard", "", host)
	s.Require().Equal(fiber.StatusOK, status)
	s.Contains(out["data"].(map[string]any)["url"], "acct_mock_")

	status, _ = s.do(http.MethodPost, "/api/stripe/connect/login", "", host)
	s.Equal(fiber.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/api/stripe/connect/onboard", "", s.booker)
	s.Equal(fiber.StatusForbidden, status)
}

func (s *APITestSuite) TestHealth() {
	status, out := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(fiber.StatusOK, status)
	s.Equal("ok", out["status"])
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
