package gateway

import "github.com/graphql-go/graphql"

// Output types. Field names follow the JSON tags on the models, which is
// what graphql-go's default resolver matches on.

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"_id":              &graphql.Field{Type: graphql.String},
		"username":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"isAvatarImageSet": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"avatarImage":      &graphql.Field{Type: graphql.String},
		"online":           &graphql.Field{Type: graphql.Boolean},
	},
})

var displayMessageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "DisplayMessage",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.String},
		"fromSelf": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"message":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"quote":    &graphql.Field{Type: graphql.String},
	},
})

var quoteMessageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "QuoteMessage",
	Fields: graphql.Fields{
		"id":      &graphql.Field{Type: graphql.String},
		"from":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"quote":   &graphql.Field{Type: graphql.String},
	},
})

// envelope builds a response type carrying status, message and an optional
// payload field
func envelope(name, payloadField string, payloadType graphql.Output) *graphql.Object {
	fields := graphql.Fields{
		"status":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	}
	if payloadField != "" {
		fields[payloadField] = &graphql.Field{Type: payloadType}
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

var (
	userResponseType            = envelope("UserResponse", "user", userType)
	getUsersResponseType        = envelope("GetUsersResponse", "users", graphql.NewList(userType))
	addMessageResponseType      = envelope("AddMessageResponse", "", nil)
	getAllMessageResponseType   = envelope("GetAllMessageResponse", "messages", graphql.NewList(displayMessageType))
	getQuoteMessageResponseType = envelope("GetQuoteMessageResponse", "quote", quoteMessageType)
)

// Input types. Required fields are non-null so malformed requests are
// rejected by validation before any resolver runs.

func input(name string, required []string, optional ...string) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, f := range required {
		fields[f] = &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)}
	}
	for _, f := range optional {
		fields[f] = &graphql.InputObjectFieldConfig{Type: graphql.String}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: fields})
}

var (
	loginRequestInput           = input("LoginRequest", []string{"username", "password"})
	registerRequestInput        = input("RegisterRequest", []string{"username", "email", "password"})
	getAllUsersRequestInput     = input("GetAllUsersRequest", []string{"id"})
	getMentionUsersRequestInput = input("GetMentionUsersRequest", []string{"id", "starts"})
	setAvatarRequestInput       = input("SetAvatarRequest", []string{"id", "image"})
	addMessageRequestInput      = input("AddMessageRequest", []string{"from", "to", "message"}, "quote")
	getAllMessageRequestInput   = input("GetAllMessageRequest", []string{"from", "to"})
	getQuoteMessageRequestInput = input("GetQuoteMessageRequest", []string{"id"})
)

func requestArg(in *graphql.InputObject) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"request": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in)},
	}
}

func (g *Gateway) buildSchema() (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type:    userResponseType,
				Args:    requestArg(loginRequestInput),
				Resolve: g.login,
			},
			"getAllUsers": &graphql.Field{
				Type:    getUsersResponseType,
				Args:    requestArg(getAllUsersRequestInput),
				Resolve: g.getAllUsers,
			},
			"getMentionUsers": &graphql.Field{
				Type:    getUsersResponseType,
				Args:    requestArg(getMentionUsersRequestInput),
				Resolve: g.getMentionUsers,
			},
			"getAllMessages": &graphql.Field{
				Type:    getAllMessageResponseType,
				Args:    requestArg(getAllMessageRequestInput),
				Resolve: g.getAllMessages,
			},
			"getQuoteMessage": &graphql.Field{
				Type:    getQuoteMessageResponseType,
				Args:    requestArg(getQuoteMessageRequestInput),
				Resolve: g.getQuoteMessage,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type:    userResponseType,
				Args:    requestArg(registerRequestInput),
				Resolve: g.register,
			},
			"setAvatar": &graphql.Field{
				Type:    userResponseType,
				Args:    requestArg(setAvatarRequestInput),
				Resolve: g.setAvatar,
			},
			"addMessage": &graphql.Field{
				Type:    addMessageResponseType,
				Args:    requestArg(addMessageRequestInput),
				Resolve: g.addMessage,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
