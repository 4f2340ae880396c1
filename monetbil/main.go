package monetbil

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Config carries the service credentials and widget settings. It is built
// once at startup and passed by value, never mutated afterwards.
type Config struct {
	ServiceKey    string
	ServiceSecret string
	WidgetBaseURL string
	WidgetVersion string
	CheckURL      string
	Currency      string
	Country       string
	Locale        string
	LogoURL       string
}

type Client struct {
	conf       Config
	httpClient *http.Client
}

func NewClient(conf Config) *Client {
	return &Client{
		conf: conf,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Config() Config {
	return c.conf
}

// CheckoutParams describes one redirect to the payment widget. Phone must
// already be in international form (NormalizePhone).
type CheckoutParams struct {
	Amount     float64
	Phone      string
	ItemRef    string
	PaymentRef string
	Firstname  string
	Lastname   string
	Email      string
	ReturnURL  string
	NotifyURL  string
	CancelURL  string
}

// BuildCheckoutURL builds the widget redirect URL. Empty parameters are
// omitted and encoding is deterministic for identical inputs (url.Values
// sorts keys).
func (c *Client) BuildCheckoutURL(p CheckoutParams) string {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}

	set("amount", NormalizeAmount(p.Amount))
	set("phone", p.Phone)
	set("locale", c.conf.Locale)
	set("country", c.conf.Country)
	set("currency", c.conf.Currency)
	set("item_ref", p.ItemRef)
	set("payment_ref", p.PaymentRef)
	set("first_name", p.Firstname)
	set("last_name", p.Lastname)
	set("email", p.Email)
	set("service", c.conf.ServiceKey)
	set("return_url", p.ReturnURL)
	set("notify_url", p.NotifyURL)
	set("cancel_url", p.CancelURL)
	set("logo", c.conf.LogoURL)

	base := strings.TrimRight(c.conf.WidgetBaseURL, "/")
	return fmt.Sprintf("%s/%s/?%s", base, c.conf.WidgetVersion, values.Encode())
}

type CheckPaymentResponse struct {
	Transaction *CheckPaymentTransaction `json:"transaction"`
	Message     string                   `json:"message"`
}

type CheckPaymentTransaction struct {
	TransactionUUID string `json:"transaction_UUID"`
	Status          string `json:"status"`
	Amount          string `json:"amount"`
	Msisdn          string `json:"msisdn"`
}

// CheckPayment polls the provider status endpoint for a payment reference.
// A transport or parse failure comes back as an error; callers must report
// the status as unknown in that case, never as failed.
func (c *Client) CheckPayment(paymentRef string) (*CheckPaymentResponse, error) {
	form := url.Values{}
	form.Set("service", c.conf.ServiceKey)
	form.Set("service_secret", c.conf.ServiceSecret)
	form.Set("paymentId", paymentRef)

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.conf.CheckURL, "/"), paymentRef)
	response, err := c.httpClient.PostForm(endpoint, form)
	if err != nil {
		return nil, errors.Wrap(err, "monetbil: check payment request failed")
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "monetbil: failed reading check payment response")
	}

	if response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("monetbil: bad response %d", response.StatusCode)
	}

	var parsed CheckPaymentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "monetbil: failed unmarshaling check payment response")
	}

	return &parsed, nil
}
