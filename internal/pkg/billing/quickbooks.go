package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

const (
	defaultQuickBooksAuthorizeURL  = "https://appcenter.intuit.com/connect/oauth2"
	defaultQuickBooksTokenURL      = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	quickBooksSandboxAPIBaseURL    = "https://sandbox-quickbooks.api.intuit.com/v3/company/"
	quickBooksProductionAPIBaseURL = "https://quickbooks.api.intuit.com/v3/company/"

	quickBooksScopeAccounting = "com.intuit.quickbooks.accounting"
	quickBooksScopeOpenID     = "openid"
)

// QuickBooksClient talks to the QuickBooks Online v3 REST API.
//
// It keeps one access/refresh token pair per realm. Before each request an
// expired access token is refreshed synchronously; a failed refresh fails that
// request and is not retried.
type QuickBooksClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RealmID      string
	Environment  string

	// APIBaseURL is the company-scoped base, e.g. https://.../v3/company/<realm>.
	APIBaseURL string

	OAuth      *oauth2.Config
	HTTPClient *http.Client
	Tokens     TokenStore

	mu    sync.Mutex
	token *oauth2.Token
}

var _ Client = (*QuickBooksClient)(nil)

// NewQuickBooksClientFromEnv builds a client from QUICKBOOKS_* settings.
func NewQuickBooksClientFromEnv(tokens TokenStore) *QuickBooksClient {
	environment := strings.ToLower(strings.TrimSpace(env.GetEnv("QUICKBOOKS_ENVIRONMENT", "sandbox")))
	realmID := strings.TrimSpace(env.GetEnv("QUICKBOOKS_REALM_ID", ""))

	base := quickBooksSandboxAPIBaseURL
	if environment == "production" {
		base = quickBooksProductionAPIBaseURL
	}

	return NewQuickBooksClient(QuickBooksConfig{
		ClientID:     strings.TrimSpace(env.GetEnv("QUICKBOOKS_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("QUICKBOOKS_CLIENT_SECRET", "")),
		RedirectURI:  strings.TrimSpace(env.GetEnv("QUICKBOOKS_REDIRECT_URI", "http://localhost:4000/api/quickbooks/callback")),
		RealmID:      realmID,
		Environment:  environment,
		AuthorizeURL: strings.TrimSpace(env.GetEnv("QUICKBOOKS_AUTHORIZE_URL", defaultQuickBooksAuthorizeURL)),
		TokenURL:     strings.TrimSpace(env.GetEnv("QUICKBOOKS_TOKEN_URL", defaultQuickBooksTokenURL)),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("QUICKBOOKS_API_BASE_URL", base+realmID)),
	}, tokens)
}

// QuickBooksConfig holds the connection settings of a QuickBooksClient.
type QuickBooksConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RealmID      string
	Environment  string
	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string
}

func NewQuickBooksClient(cfg QuickBooksConfig, tokens TokenStore) *QuickBooksClient {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &QuickBooksClient{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		RealmID:      cfg.RealmID,
		Environment:  cfg.Environment,
		APIBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		OAuth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{quickBooksScopeAccounting, quickBooksScopeOpenID},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		Tokens: tokens,
	}
}

// IsConfigured reports whether credentials and a realm are present.
func (c *QuickBooksClient) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RealmID != ""
}

func (c *QuickBooksClient) AuthorizationURL(state string) (string, error) {
	if c.ClientID == "" {
		return "", errors.New("QUICKBOOKS_CLIENT_ID is not configured")
	}
	if c.RedirectURI == "" {
		return "", errors.New("QUICKBOOKS_REDIRECT_URI is not configured")
	}
	if strings.TrimSpace(state) == "" {
		return "", errors.New("oauth state is required")
	}
	return c.OAuth.AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for a token pair and stores it.
func (c *QuickBooksClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if !c.IsConfigured() {
		return nil, errors.New("QUICKBOOKS_CLIENT_ID/QUICKBOOKS_CLIENT_SECRET/QUICKBOOKS_REALM_ID are not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("oauth code is required")
	}

	tok, err := c.OAuth.Exchange(c.oauthContext(ctx), strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("quickbooks token exchange failed: %w", err)
	}
	if err := c.SetToken(ctx, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// SetToken replaces the held token pair and persists it.
func (c *QuickBooksClient) SetToken(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("token with access_token is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
	return c.Tokens.Save(ctx, c.RealmID, tok)
}

// IsAccessTokenExpired reports whether the next request would need a refresh.
func (c *QuickBooksClient) IsAccessTokenExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token == nil || !c.token.Valid()
}

// accessToken returns a usable access token, refreshing it first when expired.
func (c *QuickBooksClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		tok, err := c.Tokens.Load(ctx, c.RealmID)
		if err != nil {
			return "", err
		}
		c.token = tok
	}
	if c.token.Valid() {
		return c.token.AccessToken, nil
	}
	if c.token.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token", ErrTokenRefresh)
	}

	refreshed, err := c.OAuth.TokenSource(c.oauthContext(ctx), c.token).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	c.token = refreshed
	if err := c.Tokens.Save(ctx, c.RealmID, refreshed); err != nil {
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	return refreshed.AccessToken, nil
}

func (c *QuickBooksClient) oauthContext(ctx context.Context) context.Context {
	if c.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

// APIError is a non-2xx answer from the QuickBooks API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks api error: status=%d body=%s", e.Status, e.Body)
}

func (c *QuickBooksClient) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *QuickBooksClient) query(ctx context.Context, q string, out interface{}) error {
	return c.do(ctx, http.MethodGet, "/query?query="+url.QueryEscape(q), nil, out)
}

func (c *QuickBooksClient) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var resp struct {
		QueryResponse struct {
			Customer []Customer `json:"Customer"`
		} `json:"QueryResponse"`
	}
	q := fmt.Sprintf("SELECT * FROM Customer WHERE PrimaryEmailAddr = '%s'", escapeQueryValue(email))
	if err := c.query(ctx, q, &resp); err != nil {
		return nil, err
	}
	if len(resp.QueryResponse.Customer) == 0 {
		return nil, nil
	}
	found := resp.QueryResponse.Customer[0]
	return &found, nil
}

func (c *QuickBooksClient) CreateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	customer.ID = ""
	customer.SyncToken = ""
	return c.postCustomer(ctx, customer)
}

func (c *QuickBooksClient) UpdateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	if customer.ID == "" {
		return nil, errors.New("customer id is required for update")
	}
	return c.postCustomer(ctx, customer)
}

func (c *QuickBooksClient) postCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	var resp struct {
		Customer Customer `json:"Customer"`
	}
	if err := c.do(ctx, http.MethodPost, "/customer", customer, &resp); err != nil {
		return nil, err
	}
	return &resp.Customer, nil
}

func (c *QuickBooksClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var resp struct {
		Customer Customer `json:"Customer"`
	}
	if err := c.do(ctx, http.MethodGet, "/customer/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Customer, nil
}

func (c *QuickBooksClient) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	inv.ID = ""
	var resp struct {
		Invoice Invoice `json:"Invoice"`
	}
	if err := c.do(ctx, http.MethodPost, "/invoice", inv, &resp); err != nil {
		return nil, err
	}
	return &resp.Invoice, nil
}

func (c *QuickBooksClient) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var resp struct {
		Invoice Invoice `json:"Invoice"`
	}
	if err := c.do(ctx, http.MethodGet, "/invoice/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Invoice, nil
}

func (c *QuickBooksClient) CompanyInfo(ctx context.Context) (*CompanyInfo, error) {
	var resp struct {
		CompanyInfo CompanyInfo `json:"CompanyInfo"`
	}
	if err := c.do(ctx, http.MethodGet, "/companyinfo/"+url.PathEscape(c.RealmID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.CompanyInfo, nil
}

// escapeQueryValue quotes a value for the QuickBooks query language.
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}
