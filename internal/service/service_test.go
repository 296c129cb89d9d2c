package service

import (
	"context"
	"testing"

	"chamberctl/internal/models"
	"chamberctl/internal/repository"
)

func TestNewService_WiresSharedChamber(t *testing.T) {
	repos := &repository.Repository{StateRepo: &memStore{}, CredentialsRepo: &memCredentials{}}
	svc := NewService(repos, Deps{Display: &fakeDisplay{}, Fan: &fakeActuator{}, Humidifier: &fakeActuator{}}, Options{}, nil)

	if svc.Updater != nil {
		t.Fatalf("no updater expected without a downloader")
	}
	if _, err := svc.Execute(context.Background(), "/manual"); err != nil {
		t.Fatal(err)
	}
	if svc.Snapshot().State.Mode != models.ModeManual {
		t.Fatalf("commands and monitoring must share one chamber")
	}
	if svc.Enabled() {
		t.Fatalf("auth must be disabled without a hash")
	}
}
