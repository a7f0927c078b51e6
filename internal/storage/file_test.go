package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dns01-hook/internal/provider"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCertificate(t *testing.T) {
	dir := t.TempDir()
	key := writeFile(t, dir, "privkey.pem", "KEY")
	cert := writeFile(t, dir, "cert.pem", "CERT")
	fullchain := writeFile(t, dir, "fullchain.pem", "CERT\nCHAIN")

	got, err := LoadCertificate(key, cert, fullchain)
	require.NoError(t, err)
	assert.Equal(t, &provider.Certificate{Certificate: "CERT", PrivateKey: "KEY", Chain: "CERT\nCHAIN"}, got)

	got, err = LoadCertificate(key, cert, "")
	require.NoError(t, err)
	assert.Empty(t, got.Chain)
}

func TestLoadCertificateMissingFile(t *testing.T) {
	dir := t.TempDir()
	cert := writeFile(t, dir, "cert.pem", "CERT")

	_, err := LoadCertificate(filepath.Join(dir, "missing.pem"), cert, "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveCertificate(t *testing.T) {
	s := NewFileStorage(t.TempDir(), testLogger())

	err := s.SaveCertificate("example.com", &provider.Certificate{Certificate: "CERT", PrivateKey: "KEY"})
	require.NoError(t, err)

	data, err := os.ReadFile(s.GetCertPath("example.com"))
	require.NoError(t, err)
	assert.Equal(t, "CERT", string(data))

	// 没有证书链时 fullchain 使用证书本身
	data, err = os.ReadFile(s.GetFullchainPath("example.com"))
	require.NoError(t, err)
	assert.Equal(t, "CERT", string(data))

	info, err := os.Stat(s.GetKeyPath("example.com"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
