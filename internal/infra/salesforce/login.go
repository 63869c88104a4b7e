package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the username/password/security-token triple for the SOAP
// login flow. The security token is appended to the password on the wire.
type Credentials struct {
	Username      string
	Password      string
	SecurityToken string
}

// JWTCredentials drives the OAuth 2.0 JWT bearer flow for a connected app.
type JWTCredentials struct {
	Username      string
	ClientID      string // the connected app's consumer key
	PrivateKeyPEM []byte // RSA private key matching the app's certificate
}

// Options configures a login. Zero values select production defaults.
type Options struct {
	// Domain is the login host prefix: "login" (default) or "test" for sandboxes.
	Domain string
	// APIVersion is the Salesforce API version, default "62.0".
	APIVersion string
	// LoginURL overrides the derived https://{domain}.salesforce.com base.
	// Used by tests to point at a stub server.
	LoginURL string
	// HTTPClient overrides the default transport-bounded client.
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.Domain == "" {
		o.Domain = "login"
	}
	if o.APIVersion == "" {
		o.APIVersion = "62.0"
	}
	if o.LoginURL == "" {
		o.LoginURL = "https://" + o.Domain + ".salesforce.com"
	}
	if o.HTTPClient == nil {
		o.HTTPClient = defaultHTTPClient()
	}
	return o
}

// ─── SOAP username/password login ────────────────────────────────────────────

// loginEnvelope is the SOAP login request body. Credentials are XML-escaped
// before interpolation.
const loginEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:urn="urn:partner.soap.sforce.com">
  <soapenv:Body>
    <urn:login>
      <urn:username>%s</urn:username>
      <urn:password>%s</urn:password>
    </urn:login>
  </soapenv:Body>
</soapenv:Envelope>`

type soapLoginResponse struct {
	ServerURL string `xml:"Body>loginResponse>result>serverUrl"`
	SessionID string `xml:"Body>loginResponse>result>sessionId"`
}

type soapFault struct {
	Code    string `xml:"Body>Fault>faultcode"`
	Message string `xml:"Body>Fault>faultstring"`
}

// Login authenticates with the SOAP username/password flow (the security
// token concatenated onto the password) and returns an authenticated Client
// bound to the org instance Salesforce reports back.
func Login(ctx context.Context, creds Credentials, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	body := fmt.Sprintf(loginEnvelope,
		xmlEscape(creds.Username),
		xmlEscape(creds.Password+creds.SecurityToken),
	)
	endpoint := opts.LoginURL + "/services/Soap/u/" + opts.APIVersion

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("salesforce: build login request: %w", err)
	}
	req.Header.Set(headerContentType, "text/xml; charset=UTF-8")
	req.Header.Set("SOAPAction", "login")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("salesforce: login: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("salesforce: read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var fault soapFault
		if xml.Unmarshal(respBody, &fault) == nil && fault.Message != "" {
			return nil, &AuthError{Code: fault.Code, Message: fault.Message}
		}
		return nil, &AuthError{Message: fmt.Sprintf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))}
	}

	var result soapLoginResponse
	if err := xml.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("salesforce: decode login response: %w", err)
	}
	if result.SessionID == "" || result.ServerURL == "" {
		return nil, &AuthError{Message: "login response missing sessionId or serverUrl"}
	}

	instanceURL, err := instanceFromServerURL(result.ServerURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient:  opts.HTTPClient,
		instanceURL: instanceURL,
		sessionID:   result.SessionID,
		apiVersion:  opts.APIVersion,
	}, nil
}

// instanceFromServerURL reduces the SOAP endpoint Salesforce returns
// (https://na139.salesforce.com/services/Soap/u/62.0/00D...) to the
// scheme+host the REST API lives on.
func instanceFromServerURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("salesforce: invalid serverUrl %q in login response", serverURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// xmlEscape escapes a credential for embedding in the SOAP envelope.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s)) //nolint:errcheck // bytes.Buffer writes cannot fail
	return buf.String()
}

// ─── OAuth 2.0 JWT bearer login ──────────────────────────────────────────────

const jwtGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// jwtAssertionLifetime keeps the assertion short-lived; Salesforce rejects
// anything beyond a few minutes anyway.
const jwtAssertionLifetime = 3 * time.Minute

type oauthTokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

type oauthErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// LoginJWT authenticates with the OAuth 2.0 JWT bearer grant: an RS256
// assertion signed with the connected app's private key, exchanged for an
// access token at the org's token endpoint.
func LoginJWT(ctx context.Context, creds JWTCredentials, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	key, err := jwt.ParseRSAPrivateKeyFromPEM(creds.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("salesforce: parse private key: %w", err)
	}

	// The audience is the login host, not the org instance.
	audience := "https://" + opts.Domain + ".salesforce.com"
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    creds.ClientID,
		Subject:   creds.Username,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtAssertionLifetime)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	assertion, err := token.SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("salesforce: sign jwt assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {jwtGrantType},
		"assertion":  {assertion},
	}
	endpoint := opts.LoginURL + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("salesforce: build token request: %w", err)
	}
	req.Header.Set(headerContentType, "application/x-www-form-urlencoded")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("salesforce: token request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("salesforce: read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr oauthErrorResponse
		if json.Unmarshal(respBody, &oauthErr) == nil && (oauthErr.Code != "" || oauthErr.Description != "") {
			return nil, &AuthError{Code: oauthErr.Code, Message: oauthErr.Description}
		}
		return nil, &AuthError{Message: fmt.Sprintf("token status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))}
	}

	var tokenResp oauthTokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("salesforce: decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" || tokenResp.InstanceURL == "" {
		return nil, &AuthError{Message: "token response missing access_token or instance_url"}
	}

	return &Client{
		httpClient:  opts.HTTPClient,
		instanceURL: strings.TrimSuffix(tokenResp.InstanceURL, "/"),
		sessionID:   tokenResp.AccessToken,
		apiVersion:  opts.APIVersion,
	}, nil
}
