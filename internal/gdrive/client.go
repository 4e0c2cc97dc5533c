// Package gdrive fetches backup archives from a Google Drive folder using
// a service-account credential. The client is constructed once per
// invocation and passed by reference; no token state is kept between runs.
package gdrive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unkind-fall/marketing-sms-backup/pkg/utils"
)

const (
	defaultBaseURL = "https://www.googleapis.com/drive/v3"
	driveScope     = "https://www.googleapis.com/auth/drive.readonly"
)

// Credentials is the subset of a Google service-account key file the
// client needs.
type Credentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// LoadCredentials reads a service-account key file from disk. When an
// encryption key is configured the file is stored AES-256-GCM encrypted
// and is decrypted before decoding.
func LoadCredentials(path, encryptionKey string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account credentials: %w", err)
	}

	if encryptionKey != "" {
		plaintext, err := utils.DecryptCredentials(string(raw), encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt service account credentials: %w", err)
		}
		raw = []byte(plaintext)
	}

	return ParseCredentials(raw)
}

// ParseCredentials decodes a service-account key file.
func ParseCredentials(raw []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" || creds.TokenURI == "" {
		return nil, errors.New("service account credentials are incomplete")
	}
	return &creds, nil
}

// File describes one archive file in the Drive folder.
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime"`
}

// Client is an authenticated Drive file source scoped to one folder.
type Client struct {
	creds    *Credentials
	folderID string
	http     *http.Client

	// baseURL is swapped out in tests.
	baseURL string
}

// NewClient creates a Drive client for the given folder.
func NewClient(creds *Credentials, folderID string) *Client {
	return &Client{
		creds:    creds,
		folderID: folderID,
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  defaultBaseURL,
	}
}

// accessToken signs a service-account assertion and exchanges it for a
// bearer token.
func (c *Client) accessToken() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.creds.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse service account key: %w", err)
	}

	now := time.Now()
	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   c.creds.ClientEmail,
		"scope": driveScope,
		"aud":   c.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})

	signed, err := assertion.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {signed},
	}

	resp, err := c.http.PostForm(c.creds.TokenURI, form)
	if err != nil {
		return "", fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token exchange failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("token exchange returned no access token")
	}

	return token.AccessToken, nil
}

// ListXMLFiles lists XML files in the folder, most recently modified first.
func (c *Client) ListXMLFiles() ([]File, error) {
	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("'%s' in parents and mimeType='text/xml' and trashed=false", c.folderID)
	params := url.Values{
		"q":       {query},
		"orderBy": {"modifiedTime desc"},
		"fields":  {"files(id,name,mimeType,modifiedTime)"},
	}

	var listing struct {
		Files []File `json:"files"`
	}
	if err := c.getJSON(c.baseURL+"/files?"+params.Encode(), token, &listing); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return listing.Files, nil
}

// DownloadFile fetches one file's content.
func (c *Client) DownloadFile(id string) (string, error) {
	token, err := c.accessToken()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/files/"+url.PathEscape(id)+"?alt=media", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to download file: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}

	return string(content), nil
}

// LatestArchive returns the most recently modified XML file in the folder.
// An empty file name with a nil error means the folder holds no archives.
func (c *Client) LatestArchive() (string, string, error) {
	files, err := c.ListXMLFiles()
	if err != nil {
		return "", "", err
	}
	if len(files) == 0 {
		return "", "", nil
	}

	latest := files[0]
	content, err := c.DownloadFile(latest.ID)
	if err != nil {
		return "", "", err
	}

	return latest.Name, content, nil
}

func (c *Client) getJSON(rawURL, token string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
