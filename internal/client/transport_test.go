package client

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/bizops/internal/certgen"
)

// helper: generate a self-signed CA cert and key
func generateCACert(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	certTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, certTmpl, certTmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}

func TestNewHTTPClient_Plain(t *testing.T) {
	c, err := NewHTTPClient(TransportConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Timeout != 5*time.Second || c.Transport != nil {
		t.Errorf("unexpected client: timeout=%v transport=%v", c.Timeout, c.Transport)
	}
}

func TestNewHTTPClient_ReadCAError(t *testing.T) {
	_, err := NewHTTPClient(TransportConfig{CAFile: "nonexistent.pem"})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file not exist error, got %v", err)
	}
}

func TestNewHTTPClient_InvalidCA(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caPath, []byte("invalid pem"), 0600); err != nil {
		t.Fatalf("failed to write CA file: %v", err)
	}
	_, err := NewHTTPClient(TransportConfig{CAFile: caPath})
	if err == nil || !strings.Contains(err.Error(), "failed to parse CA cert") {
		t.Errorf("expected parse CA error, got %v", err)
	}
}

func TestNewHTTPClient_ClientCertificate(t *testing.T) {
	certPEM, keyPEM := generateCACert(t)

	tmp := t.TempDir()
	certPath := filepath.Join(tmp, "client.crt")
	keyPath := filepath.Join(tmp, "client.key")
	caPath := filepath.Join(tmp, "ca.pem")
	for path, data := range map[string][]byte{certPath: certPEM, keyPath: keyPEM, caPath: certPEM} {
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	c, err := NewHTTPClient(TransportConfig{CAFile: caPath, CertFile: certPath, KeyFile: keyPath})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tcfg := c.Transport.(*http.Transport).TLSClientConfig
	if len(tcfg.Certificates) != 1 {
		t.Errorf("expected 1 client certificate, got %d", len(tcfg.Certificates))
	}
	found := false
	for _, subj := range tcfg.RootCAs.Subjects() { //nolint:staticcheck
		if bytes.Contains(subj, []byte("Test CA")) {
			found = true
			break
		}
	}
	if !found {
		t.Error("CA certificate not found in RootCAs")
	}
}

func TestNewHTTPClient_MissingKey(t *testing.T) {
	certPEM, _ := generateCACert(t)
	certPath := filepath.Join(t.TempDir(), "client.crt")
	if err := os.WriteFile(certPath, certPEM, 0600); err != nil {
		t.Fatal(err)
	}
	_, err := NewHTTPClient(TransportConfig{CertFile: certPath})
	if err == nil || !strings.Contains(err.Error(), "failed to load client cert/key") {
		t.Errorf("expected key load error, got %v", err)
	}
}

func TestNewHTTPClient_MutualTLSRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := certgen.WriteBundle(dir, []string{"127.0.0.1"}, "bizops-client", time.Hour); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	caPEM, err := os.ReadFile(filepath.Join(dir, certgen.CAFile))
	if err != nil {
		t.Fatal(err)
	}
	serverCert, err := tls.LoadX509KeyPair(filepath.Join(dir, certgen.ServerCertFile), filepath.Join(dir, certgen.ServerKeyFile))
	if err != nil {
		t.Fatal(err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caPEM)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.TLS.PeerCertificates) > 0 {
			_, _ = w.Write([]byte(r.TLS.PeerCertificates[0].Subject.CommonName))
		}
	}))
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}
	srv.StartTLS()
	defer srv.Close()

	c, err := NewHTTPClient(TransportConfig{
		CAFile:   filepath.Join(dir, certgen.CAFile),
		CertFile: filepath.Join(dir, certgen.ClientCertFile),
		KeyFile:  filepath.Join(dir, certgen.ClientKeyFile),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	peer, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(peer) != "bizops-client" {
		t.Errorf("server saw client %q, want bizops-client", peer)
	}

	anonymous, err := NewHTTPClient(TransportConfig{CAFile: filepath.Join(dir, certgen.CAFile)})
	if err != nil {
		t.Fatal(err)
	}
	if resp, err := anonymous.Get(srv.URL); err == nil {
		resp.Body.Close()
		t.Error("expected handshake failure without a client certificate")
	}
}
