package gateway

import "net/http"

var BuildSchemaForTest = buildSchema

func SchemaSDLForTest() string {
	return schemaSDL
}

func NewGatewayWithAPIsForTest(settings GatewayOption, posts PostsAPI, comments CommentsAPI) (http.Handler, error) {
	return newGateway(settings, posts, comments, nil)
}
