// Package gateway exposes the chat operations as a GraphQL API. Every
// operation answers with a status/message envelope; domain failures never
// surface as GraphQL errors.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"chatty/models"
	"chatty/render"
	"chatty/service"
)

// Gateway resolves GraphQL requests against the services
type Gateway struct {
	users    *service.UserService
	messages *service.MessageService
	schema   graphql.Schema
	logger   *slog.Logger
}

func New(users *service.UserService, messages *service.MessageService, logger *slog.Logger) (*Gateway, error) {
	g := &Gateway{
		users:    users,
		messages: messages,
		logger:   logger,
	}

	schema, err := g.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("building graphql schema: %w", err)
	}
	g.schema = schema
	return g, nil
}

// Execute runs one GraphQL document. Values should be passed as variables
// rather than spliced into query.
func (g *Gateway) Execute(ctx context.Context, query string, variables map[string]interface{}, operationName string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         g.schema,
		RequestString:  query,
		VariableValues: variables,
		OperationName:  operationName,
		Context:        ctx,
	})
}

type graphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// ServeHTTP accepts POST with a JSON body or GET with query parameters.
// Mutations are only accepted over POST.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest

	switch r.Method {
	case http.MethodPost:
		if err := render.Decode(w, r, &req); err != nil {
			render.JSON(w, render.DecodeStatus(err), map[string]string{"error": "Invalid request body"})
			return
		}
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				render.JSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid variables"})
				return
			}
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		render.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	if req.Query == "" {
		render.JSON(w, http.StatusBadRequest, map[string]string{"error": "Missing query"})
		return
	}
	if r.Method == http.MethodGet && isMutation(req.Query, req.OperationName) {
		w.Header().Set("Allow", http.MethodPost)
		render.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Mutations must use POST"})
		return
	}

	result := g.Execute(r.Context(), req.Query, req.Variables, req.OperationName)
	if result.HasErrors() {
		g.logger.Debug("graphql request rejected", slog.Any("errors", result.Errors))
	}
	render.JSON(w, http.StatusOK, result)
}

// isMutation reports whether the operation that would run is a mutation.
// Documents that fail to parse are left to Execute to report.
func isMutation(query, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}

	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok || op.Operation != ast.OperationTypeMutation {
			continue
		}
		if operationName == "" || (op.Name != nil && op.Name.Value == operationName) {
			return true
		}
	}
	return false
}

// decodeRequest copies the "request" argument into dst through its JSON tags
func decodeRequest(p graphql.ResolveParams, dst interface{}) error {
	raw, err := json.Marshal(p.Args["request"])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Resolvers

func (g *Gateway) login(p graphql.ResolveParams) (interface{}, error) {
	var req models.LoginRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewUserResponse(nil, err), nil
	}
	return models.NewUserResponse(g.users.Login(p.Context, &req)), nil
}

func (g *Gateway) register(p graphql.ResolveParams) (interface{}, error) {
	var req models.RegisterRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewUserResponse(nil, err), nil
	}
	return models.NewUserResponse(g.users.Register(p.Context, &req)), nil
}

func (g *Gateway) getAllUsers(p graphql.ResolveParams) (interface{}, error) {
	var req models.GetAllUsersRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewGetUsersResponse(nil, err), nil
	}
	return models.NewGetUsersResponse(g.users.GetAllUsers(p.Context, &req)), nil
}

func (g *Gateway) getMentionUsers(p graphql.ResolveParams) (interface{}, error) {
	var req models.GetMentionUsersRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewGetUsersResponse(nil, err), nil
	}
	return models.NewGetUsersResponse(g.users.GetMentionUsers(p.Context, &req)), nil
}

func (g *Gateway) setAvatar(p graphql.ResolveParams) (interface{}, error) {
	var req models.SetAvatarRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewUserResponse(nil, err), nil
	}
	return models.NewUserResponse(g.users.SetAvatar(p.Context, &req)), nil
}

func (g *Gateway) addMessage(p graphql.ResolveParams) (interface{}, error) {
	var req models.AddMessageRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewAddMessageResponse(err), nil
	}
	_, err := g.messages.AddMessage(p.Context, &req)
	return models.NewAddMessageResponse(err), nil
}

func (g *Gateway) getAllMessages(p graphql.ResolveParams) (interface{}, error) {
	var req models.GetAllMessagesRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewGetAllMessageResponse(nil, err), nil
	}
	return models.NewGetAllMessageResponse(g.messages.GetAllMessages(p.Context, &req)), nil
}

func (g *Gateway) getQuoteMessage(p graphql.ResolveParams) (interface{}, error) {
	var req models.GetQuoteMessageRequest
	if err := decodeRequest(p, &req); err != nil {
		return models.NewGetQuoteMessageResponse(nil, err), nil
	}
	return models.NewGetQuoteMessageResponse(g.messages.GetQuoteMessage(p.Context, &req)), nil
}
