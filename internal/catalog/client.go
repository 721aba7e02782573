package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is the port to the remote catalog/order service. The core depends on
// this interface only; the concrete HTTP paths are a collaborator detail.
type Client interface {
	GoodsDetail(ctx context.Context, id int64) (*Goods, error)
	GoodsList(ctx context.Context, categoryID int64, keyword string) ([]Goods, error)
	AddressList(ctx context.Context) ([]Address, error)
	AddressDetail(ctx context.Context, id int64) (*Address, error)
	CreateAddress(ctx context.Context, in *AddressInput) error
	UpdateAddress(ctx context.Context, id int64, in *AddressInput) error
	DeliveryConfig(ctx context.Context) (*DeliveryConfig, error)
	UserPoints(ctx context.Context) (*PointsBalance, error)
	PointsHistory(ctx context.Context, page, pageSize int) ([]PointsRecord, error)
	SignIn(ctx context.Context) (*SignInResult, error)
	CreateOrder(ctx context.Context, draft *OrderDraft) (*CreateOrderResult, error)
	OrderList(ctx context.Context) ([]OrderSummary, error)
	OrderDetail(ctx context.Context, id int64) (*OrderDetail, error)
	CancelOrder(ctx context.Context, id int64) error
}

// BusinessError is a failure status returned by the service itself, as opposed
// to a transport failure. Its message is surfaced to the user verbatim.
type BusinessError struct {
	Code int
	Msg  string
}

func (e *BusinessError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("service rejected request with code %d", e.Code)
	}
	return e.Msg
}

// envelope is the response wrapper every endpoint uses. The backend has two
// historical success encodings, code 0 and code 200; both mean "ok".
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func isSuccessCode(code int) bool {
	return code == 0 || code == 200
}

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("catalog: failed to marshal request body for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("catalog: failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: request to %s returned status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("catalog: failed to decode response from %s: %w", path, err)
	}

	if !isSuccessCode(env.Code) {
		log.Warn().Int("code", env.Code).Str("path", path).Str("msg", env.Msg).Msg("catalog: service rejected request")
		return &BusinessError{Code: env.Code, Msg: env.Msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("catalog: failed to decode data from %s: %w", path, err)
		}
	}

	return nil
}

func (c *httpClient) GoodsDetail(ctx context.Context, id int64) (*Goods, error) {
	var goods Goods
	if err := c.do(ctx, http.MethodGet, "/goods/detail/"+strconv.FormatInt(id, 10), nil, nil, &goods); err != nil {
		return nil, err
	}
	return &goods, nil
}

func (c *httpClient) GoodsList(ctx context.Context, categoryID int64, keyword string) ([]Goods, error) {
	query := url.Values{}
	if categoryID != 0 {
		query.Set("categoryId", strconv.FormatInt(categoryID, 10))
	}
	if keyword != "" {
		query.Set("keyword", keyword)
	}

	var goods []Goods
	if err := c.do(ctx, http.MethodGet, "/goods/list", query, nil, &goods); err != nil {
		return nil, err
	}
	return goods, nil
}

func (c *httpClient) AddressList(ctx context.Context) ([]Address, error) {
	var addresses []Address
	if err := c.do(ctx, http.MethodGet, "/address/list", nil, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *httpClient) AddressDetail(ctx context.Context, id int64) (*Address, error) {
	var address Address
	if err := c.do(ctx, http.MethodGet, "/address/detail/"+strconv.FormatInt(id, 10), nil, nil, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (c *httpClient) CreateAddress(ctx context.Context, in *AddressInput) error {
	return c.do(ctx, http.MethodPost, "/address/add", nil, in, nil)
}

func (c *httpClient) UpdateAddress(ctx context.Context, id int64, in *AddressInput) error {
	return c.do(ctx, http.MethodPut, "/address/edit/"+strconv.FormatInt(id, 10), nil, in, nil)
}

func (c *httpClient) UserPoints(ctx context.Context) (*PointsBalance, error) {
	var balance PointsBalance
	if err := c.do(ctx, http.MethodGet, "/user/points", nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *httpClient) PointsHistory(ctx context.Context, page, pageSize int) ([]PointsRecord, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var data struct {
		Records []PointsRecord `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/points/history", query, nil, &data); err != nil {
		return nil, err
	}
	return data.Records, nil
}

func (c *httpClient) SignIn(ctx context.Context) (*SignInResult, error) {
	var result SignInResult
	if err := c.do(ctx, http.MethodPost, "/user/signIn", nil, struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) DeliveryConfig(ctx context.Context) (*DeliveryConfig, error) {
	var cfg DeliveryConfig
	if err := c.do(ctx, http.MethodGet, "/config/delivery", nil, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *httpClient) CreateOrder(ctx context.Context, draft *OrderDraft) (*CreateOrderResult, error) {
	var result CreateOrderResult
	if err := c.do(ctx, http.MethodPost, "/order/create", nil, draft, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) OrderList(ctx context.Context) ([]OrderSummary, error) {
	var orders []OrderSummary
	if err := c.do(ctx, http.MethodGet, "/order/list", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *httpClient) OrderDetail(ctx context.Context, id int64) (*OrderDetail, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatInt(id, 10))

	var detail OrderDetail
	if err := c.do(ctx, http.MethodGet, "/order/detail", query, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *httpClient) CancelOrder(ctx context.Context, id int64) error {
	body := map[string]int64{"id": id}
	return c.do(ctx, http.MethodPost, "/order/cancel", nil, body, nil)
}
