package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster/internal/application/dto"
	apphttp "github.com/jhoicas/stockmaster/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockmaster/pkg/jwt"
)

const (
	testJWTSecret = "stockmaster-secreto-de-pruebas"
	testUserID    = "7d2f4c1e-0b9a-4e55-9c3b-3a1f0e6d8b21"
	testIssuer    = "stockmaster-test"
)

// tokenForRole Bearer firmado con el secreto de pruebas para testUserID.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, 15)
	require.NoError(t, err)
	return "Bearer " + tok
}

// guardedApp monta las dos guardas de rol de la API detrás del middleware de autenticación.
func guardedApp() *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"actor": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
	}
	auth := apphttp.AuthMiddleware(testJWTSecret)
	app.Post("/movimientos", auth, apphttp.RequireWriter(), ok)
	app.Get("/consistencia", auth, apphttp.RequireAuditor(), ok)
	app.Get("/lectura", auth, ok)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, authorization string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	if resp.StatusCode != http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestGuardas_MatrizDeRoles(t *testing.T) {
	app := guardedApp()
	cases := []struct {
		role        string
		write       int
		consistency int
	}{
		{apphttp.RoleAdmin, http.StatusOK, http.StatusOK},
		{apphttp.RoleWarehouse, http.StatusOK, http.StatusForbidden},
		{apphttp.RoleAuditor, http.StatusForbidden, http.StatusOK},
		{"contador", http.StatusForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			token := tokenForRole(t, tc.role)

			status, body := send(t, app, http.MethodPost, "/movimientos", token)
			assert.Equal(t, tc.write, status)
			if status == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body.Code)
			}

			status, body = send(t, app, http.MethodGet, "/consistencia", token)
			assert.Equal(t, tc.consistency, status)
			if status == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body.Code)
			}

			status, _ = send(t, app, http.MethodGet, "/lectura", token)
			assert.Equal(t, http.StatusOK, status, "cualquier rol autenticado consulta")
		})
	}
}

func TestGuardas_TokenSinRol(t *testing.T) {
	app := guardedApp()
	token := tokenForRole(t, "")

	status, body := send(t, app, http.MethodPost, "/movimientos", token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_ROLE", body.Code)

	status, body = send(t, app, http.MethodGet, "/consistencia", token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_ROLE", body.Code)
}

func TestAuthMiddleware_CabecerasRechazadas(t *testing.T) {
	app := guardedApp()
	otherSecret, err := pkgjwt.Generate("otro-secreto", testUserID, apphttp.RoleAdmin, testIssuer, 15)
	require.NoError(t, err)
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, apphttp.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		code   string
	}{
		"sin cabecera":   {"", "MISSING_TOKEN"},
		"esquema basic":  {"Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		"malformado":     {"Bearer a.b.c", "INVALID_TOKEN"},
		"otra firma":     {"Bearer " + otherSecret, "INVALID_TOKEN"},
		"token expirado": {"Bearer " + expired, "INVALID_TOKEN"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := send(t, app, http.MethodGet, "/lectura", tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_ActorDelToken(t *testing.T) {
	app := guardedApp()
	req := httptest.NewRequest(http.MethodPost, "/movimientos", nil)
	req.Header.Set("Authorization", "bearer "+tokenForRole(t, apphttp.RoleWarehouse)[len("Bearer "):])
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "el esquema no distingue mayúsculas")

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["actor"])
	assert.Equal(t, apphttp.RoleWarehouse, body["role"])
}
