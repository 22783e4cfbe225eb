package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func TestNewAuthority(t *testing.T) {
	ca, err := NewAuthority("Test CA", time.Hour)
	require.NoError(t, err)

	assert.True(t, ca.Cert.IsCA)
	assert.True(t, ca.Cert.BasicConstraintsValid)
	assert.Equal(t, "Test CA", ca.Cert.Subject.CommonName)
	assert.NotZero(t, ca.Cert.KeyUsage&x509.KeyUsageCertSign)
}

func TestIssueServer(t *testing.T) {
	ca, err := NewAuthority("Test CA", time.Hour)
	require.NoError(t, err)

	pair, err := ca.IssueServer([]string{"localhost", "127.0.0.1"}, time.Hour)
	require.NoError(t, err)
	cert := parse(t, pair.CertPEM)

	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", cert.IPAddresses[0].String())
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, cert.ExtKeyUsage)
	assert.NoError(t, cert.CheckSignatureFrom(ca.Cert))

	_, err = tls.X509KeyPair(pair.CertPEM, pair.KeyPEM)
	assert.NoError(t, err)

	_, err = ca.IssueServer(nil, time.Hour)
	assert.Error(t, err)
}

func TestIssueClient(t *testing.T) {
	ca, err := NewAuthority("Test CA", time.Hour)
	require.NoError(t, err)

	pair, err := ca.IssueClient("asha", time.Hour)
	require.NoError(t, err)
	cert := parse(t, pair.CertPEM)

	assert.Equal(t, "asha", cert.Subject.CommonName)
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}, cert.ExtKeyUsage)
	assert.NoError(t, cert.CheckSignatureFrom(ca.Cert))
}

func TestWriteBundleAndLoadAuthority(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBundle(dir, []string{"localhost"}, "asha", time.Hour))

	for _, name := range []string{CAFile, "ca.key", ServerCertFile, ServerKeyFile, ClientCertFile, ClientKeyFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	info, err := os.Stat(filepath.Join(dir, ServerKeyFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	ca, err := LoadAuthority(filepath.Join(dir, CAFile), filepath.Join(dir, "ca.key"))
	require.NoError(t, err)
	serverPEM, err := os.ReadFile(filepath.Join(dir, ServerCertFile))
	require.NoError(t, err)
	assert.NoError(t, parse(t, serverPEM).CheckSignatureFrom(ca.Cert))
}

func TestWriteBundle_WithoutClient(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBundle(dir, []string{"localhost"}, "", time.Hour))

	_, err := os.Stat(filepath.Join(dir, ClientCertFile))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadAuthority_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadAuthority(filepath.Join(dir, "missing.crt"), filepath.Join(dir, "missing.key"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not pem"), 0o600))
	_, err = LoadAuthority(garbage, garbage)
	assert.EqualError(t, err, "invalid CA cert PEM")

	ca, err := NewAuthority("Test CA", time.Hour)
	require.NoError(t, err)
	leaf, err := ca.IssueClient("asha", time.Hour)
	require.NoError(t, err)
	leafCert := filepath.Join(dir, "leaf.crt")
	leafKey := filepath.Join(dir, "leaf.key")
	require.NoError(t, leaf.Write(leafCert, leafKey))
	_, err = LoadAuthority(leafCert, leafKey)
	assert.EqualError(t, err, "certificate is not a CA")

	caPair, err := ca.Pair()
	require.NoError(t, err)
	caCert := filepath.Join(dir, "ca.crt")
	require.NoError(t, os.WriteFile(caCert, caPair.CertPEM, 0o600))
	_, err = LoadAuthority(caCert, garbage)
	assert.EqualError(t, err, "invalid CA key PEM")
}
