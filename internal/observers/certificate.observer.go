package observers

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
)

// CertificateObserver walks the configured directories for certificate
// files and raises as they approach expiry: Warning inside the
// configured window, Error once expired. Expiry is a calendar fact, not
// an averaged metric, so severity is classified directly.
type CertificateObserver struct {
	watcher
	cfg config.CertificatesConfig
	now func() time.Time
}

func NewCertificateObserver(cfg config.CertificatesConfig, sink health.Sink) *CertificateObserver {
	return &CertificateObserver{
		watcher: newWatcher("certificates", cfg.Common, sink, series.FixedWindow, false),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (o *CertificateObserver) Observe(ctx context.Context) error {
	for _, dir := range o.cfg.Paths {
		files, err := listCertificateFiles(dir)
		if err != nil {
			zap.S().Warnf("certificates: skipping %s: %v", dir, err)
			continue
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.checkFile(file); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *CertificateObserver) checkFile(path string) error {
	cert, err := loadCertificate(path)
	if err != nil {
		// An unreadable or malformed file affects that file only.
		zap.S().Warnf("certificates: cannot parse %s: %v", path, err)
		return nil
	}

	daysLeft := cert.NotAfter.Sub(o.now()).Hours() / 24
	subject := cert.Subject.CommonName
	if subject == "" {
		subject = filepath.Base(path)
	}

	sev := models.SeverityOk
	message := ""
	switch {
	case daysLeft <= 0:
		sev = models.SeverityError
		message = fmt.Sprintf("%s: certificate %q expired %.0f days ago (%s)",
			path, subject, -daysLeft, cert.NotAfter.Format(time.RFC3339))
	case daysLeft <= float64(o.cfg.WarnWithinDays):
		sev = models.SeverityWarning
		message = fmt.Sprintf("%s: certificate %q expires in %.0f days (%s), inside the %d day warning window",
			path, subject, daysLeft, cert.NotAfter.Format(time.RFC3339), o.cfg.WarnWithinDays)
	}

	return o.classify(path, models.MetricCertExpiry, sev, message)
}

func listCertificateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block != nil {
		data = block.Bytes
	}
	return x509.ParseCertificate(data)
}
