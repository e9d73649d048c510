package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// client talks to the JSON API. The session cookie is kept in
// ~/.phishaware/cookies.json so that login carries over between commands.
type client struct {
	base   *url.URL
	http   *http.Client
	cookie string
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func newClient(base string) (*client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &client{
		base: u,
		http: &http.Client{Jar: jar, Timeout: 60 * time.Second},
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.cookie = filepath.Join(home, ".phishaware", "cookies.json")
	}
	if err := c.loadCookies(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *client) loadCookies() error {
	if c.cookie == "" {
		return nil
	}
	b, err := os.ReadFile(c.cookie)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	saved := map[string][]savedCookie{}
	if err := json.Unmarshal(b, &saved); err != nil {
		return fmt.Errorf("decode cookies: %w", err)
	}
	var cookies []*http.Cookie
	for _, sc := range saved[c.base.Host] {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.http.Jar.SetCookies(c.base, cookies)
	return nil
}

func (c *client) writeCookies(list []savedCookie) error {
	if c.cookie == "" {
		return nil
	}
	saved := map[string][]savedCookie{}
	if b, err := os.ReadFile(c.cookie); err == nil {
		_ = json.Unmarshal(b, &saved)
	}
	if len(list) == 0 {
		delete(saved, c.base.Host)
	} else {
		saved[c.base.Host] = list
	}
	if err := os.MkdirAll(filepath.Dir(c.cookie), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cookie, data, 0600)
}

func (c *client) saveCookies() error {
	var list []savedCookie
	for _, ck := range c.http.Jar.Cookies(c.base) {
		list = append(list, savedCookie{Name: ck.Name, Value: ck.Value})
	}
	return c.writeCookies(list)
}

func (c *client) clearCookies() error {
	return c.writeCookies(nil)
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) postFile(ctx context.Context, path, field, name string, out any) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (status %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
