package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const docsPage = `<!DOCTYPE html>
<html>
<head>
  <title>Hexclash API</title>
  <meta charset="utf-8"/>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"/>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/docs/openapi.yaml", dom_id: "#swagger-ui"});
  </script>
</body>
</html>`

const openapiSpec = `openapi: 3.0.3
info:
  title: Hexclash API
  description: Game and scenario resources plus the WebSocket admission endpoint.
  version: "1.0.0"
paths:
  /test:
    get:
      summary: Liveness check that echoes the verified identity
      security: [{bearer: []}]
      responses:
        "200": {description: OK}
        "401": {description: Missing or invalid token}
  /games:
    get:
      summary: Paginated game listing
      parameters:
        - {name: limit, in: query, schema: {type: integer, minimum: 1, maximum: 100}}
        - {name: nextToken, in: query, schema: {type: string}}
      responses:
        "200": {description: OK}
    post:
      summary: Create a game from a scenario
      responses:
        "200": {description: OK}
        "404": {description: Scenario not found}
  /games/{gameId}:
    get:
      summary: Read one game
      responses:
        "200": {description: OK}
        "404": {description: Game not found}
    delete:
      summary: Destroy a game (creator only)
      responses:
        "200": {description: OK}
        "403": {description: Not the creator}
        "404": {description: Game not found}
  /games/{gameId}/join:
    post:
      summary: Join as player2
      responses:
        "200": {description: Game is now active}
        "404": {description: Game not found}
        "409": {description: Game already full or joiner is the creator}
  /scenarios:
    get: {summary: List scenarios, responses: {"200": {description: OK}}}
    post: {summary: Create a scenario, responses: {"200": {description: OK}}}
  /ws:
    get:
      summary: WebSocket upgrade (gameId, userId, token query parameters)
      responses:
        "101": {description: Switching protocols}
        "400": {description: gameId or userId missing}
        "403": {description: Not a participant}
        "404": {description: Game not found}
components:
  securitySchemes:
    bearer: {type: http, scheme: bearer, bearerFormat: JWT}
`

// Docs serves the interactive documentation page. Unauthenticated.
func Docs(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}

// OpenAPISpec serves the raw specification. Unauthenticated.
func OpenAPISpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", []byte(openapiSpec))
}
