package service

import (
	"context"
	"errors"
	"strings"

	"chamberctl/internal/logger"
	"chamberctl/internal/models"
	"chamberctl/internal/repository"
)

var errEmptySSID = errors.New("ssid is required")

// NeedsProvisioning decides, once per boot, whether to enter configuration
// mode instead of normal operation.
func NeedsProvisioning(hasCredentials, buttonHeld bool) bool {
	return !hasCredentials || buttonHeld
}

// ProvisioningService stores uplink credentials for the configuration portal.
type ProvisioningService struct {
	repo repository.CredentialsRepo
	log  *logger.Logger
}

func NewProvisioningService(repo repository.CredentialsRepo, log *logger.Logger) *ProvisioningService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProvisioningService{repo: repo, log: log}
}

// Decide loads the stored credentials and applies NeedsProvisioning. An
// unreadable store counts as having no credentials.
func (s *ProvisioningService) Decide(ctx context.Context, buttonHeld bool) bool {
	_, found, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Errorw("credentials_load_failed", "error", err)
		found = false
	}
	need := NeedsProvisioning(found, buttonHeld)
	s.log.Infow("provisioning_decision", "has_credentials", found, "button_held", buttonHeld, "config_mode", need)
	return need
}

func (s *ProvisioningService) SaveCredentials(ctx context.Context, c models.Credentials) error {
	c.SSID = strings.TrimSpace(c.SSID)
	if c.SSID == "" {
		return errEmptySSID
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}
	s.log.Infow("credentials_saved", "ssid", c.SSID)
	return nil
}
