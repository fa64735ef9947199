package service

import (
	"os"
	"testing"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common/security"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()
	os.Exit(m.Run())
}

var (
	alice = access.Principal{UserID: "11111111-1111-1111-1111-111111111111", Role: model.RoleUser}
	bob   = access.Principal{UserID: "22222222-2222-2222-2222-222222222222", Role: model.RoleUser}
	admin = access.Principal{UserID: "33333333-3333-3333-3333-333333333333", Role: model.RoleAdmin}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
