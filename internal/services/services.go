// Package services wraps the portal backend endpoints in typed calls.
//
// Every call flows through one *apiclient.Client, so the cross-cutting behaviour (CSRF,
// session expiry, notifications, loading) is applied uniformly. Inputs are validated before
// the request is sent and every response is checked against its JSON schema before it is
// decoded.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/schemas"
	"github.com/pondok-digital/portal/internal/validation"
)

// Services groups the typed endpoint wrappers sharing one client
type Services struct {
	Auth         *AuthService
	Articles     *ArticleService
	Categories   *Resource[Category, CategoryInput]
	Tags         *Resource[Tag, TagInput]
	Videos       *Resource[Video, VideoInput]
	Achievements *Resource[Achievement, AchievementInput]
	Galleries    *Resource[Gallery, GalleryInput]
	Contact      *ContactService
	Admission    *AdmissionService
	ActivityLogs *ActivityLogService
	Dashboard    *DashboardService
}

func New(client *apiclient.Client) *Services {
	return &Services{
		Auth:         &AuthService{client: client},
		Articles:     &ArticleService{client: client},
		Categories:   NewResource[Category, CategoryInput](client, "/categories"),
		Tags:         NewResource[Tag, TagInput](client, "/tags"),
		Videos:       NewResource[Video, VideoInput](client, "/videos"),
		Achievements: NewResource[Achievement, AchievementInput](client, "/achievements"),
		Galleries:    NewResource[Gallery, GalleryInput](client, "/galleries"),
		Contact:      &ContactService{client: client},
		Admission:    &AdmissionService{client: client},
		ActivityLogs: &ActivityLogService{client: client},
		Dashboard:    &DashboardService{client: client},
	}
}

// ContractError reports a response that does not match the backend contract
type ContractError struct {
	Schema    string
	RequestID string
	Err       error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("unexpected %s response (request_id %s): %v", e.Schema, e.RequestID, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// UserError returns the user-friendly message
func (e *ContractError) UserError() string {
	return "An error occurred. Please try again later."
}

type envelope struct {
	RequestID string          `json:"request_id"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// decodeData checks the envelope and the data payload against schema, then decodes data into v.
// An empty schema skips the payload check, a nil v skips decoding.
func decodeData(res *apiclient.Response, schema string, v any) error {
	if err := schemas.Validate(schemas.Envelope, res.Body); err != nil {
		return &ContractError{Schema: schemas.Envelope, RequestID: res.RequestID, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return &ContractError{Schema: schemas.Envelope, RequestID: res.RequestID, Err: err}
	}
	if schema == "" || v == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &ContractError{Schema: schema, RequestID: res.RequestID, Err: fmt.Errorf("response has no data")}
	}

	if err := schemas.Validate(schema, env.Data); err != nil {
		return &ContractError{Schema: schema, RequestID: res.RequestID, Err: err}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return &ContractError{Schema: schema, RequestID: res.RequestID, Err: err}
	}
	return nil
}

// send validates input, dispatches the request and decodes the data payload into out
func send(ctx context.Context, client *apiclient.Client, method, path string, query url.Values, input any, schema string, out any) error {
	if input != nil {
		if err := validation.Struct(input); err != nil {
			return err
		}
	}

	req := apiclient.NewRequest(method, path, input)
	req.Query = query
	res, err := client.Send(ctx, req)
	if err != nil {
		return err
	}
	return decodeData(res, schema, out)
}

func get(ctx context.Context, client *apiclient.Client, path string, query url.Values, schema string, out any) error {
	return send(ctx, client, http.MethodGet, path, query, nil, schema, out)
}

func pageQuery(page, limit, defaultLimit int) url.Values {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

func idPath(base string, id uint, suffix ...string) string {
	p := base + "/" + strconv.FormatUint(uint64(id), 10)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
