package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/farmlink/authcore/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
)

func stubDeps(claims *jwt.Claims, err error) AuthorizeDeps {
	return AuthorizeDeps{
		Validate: func(string) (*jwt.Claims, error) {
			if err != nil {
				return nil, err
			}
			c := *claims
			return &c, nil
		},
		NormalizeRole: func(r string) (string, bool) {
			switch r {
			case "farmer", "vet", "customer", "admin":
				return r, true
			}
			return "", false
		},
		AdminRole: "admin",
	}
}

func claimsFor(sub, role string) *jwt.Claims {
	return &jwt.Claims{Role: role, RegisteredClaims: gjwt.RegisteredClaims{Subject: sub, ID: "jti-" + sub}}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"abc.def.ghi", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := BearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("BearerToken(%q) = (%q, %v), want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}

func TestRunAuthorizeNoCredential(t *testing.T) {
	res := RunAuthorize(context.Background(), "", AuthorizeRequirement{}, stubDeps(nil, nil))
	if res.Failure != AuthorizeFailureNoCredential {
		t.Fatalf("expected NoCredential, got %v", res.Failure)
	}
}

func TestRunAuthorizeTokenFailurePassesError(t *testing.T) {
	res := RunAuthorize(context.Background(), "t", AuthorizeRequirement{}, stubDeps(nil, jwt.ErrExpired))
	if res.Failure != AuthorizeFailureToken || !errors.Is(res.Err, jwt.ErrExpired) {
		t.Fatalf("expected token failure with ErrExpired, got %v / %v", res.Failure, res.Err)
	}
}

func TestRunAuthorizeRejectsUnknownRoleClaim(t *testing.T) {
	res := RunAuthorize(context.Background(), "t", AuthorizeRequirement{}, stubDeps(claimsFor("u-1", "wizard"), nil))
	if res.Failure != AuthorizeFailureToken || !errors.Is(res.Err, jwt.ErrMalformed) {
		t.Fatalf("expected malformed failure, got %v / %v", res.Failure, res.Err)
	}
}

func TestRunAuthorizeRoleAndOwnership(t *testing.T) {
	ctx := context.Background()

	res := RunAuthorize(ctx, "t", AuthorizeRequirement{Role: "admin"}, stubDeps(claimsFor("c-1", "customer"), nil))
	if res.Failure != AuthorizeFailureWrongRole {
		t.Fatalf("expected WrongRole, got %v", res.Failure)
	}

	res = RunAuthorize(ctx, "t", AuthorizeRequirement{Role: "farmer", OwnerID: "f-2"}, stubDeps(claimsFor("f-1", "farmer"), nil))
	if res.Failure != AuthorizeFailureNotOwner {
		t.Fatalf("expected NotOwner, got %v", res.Failure)
	}

	res = RunAuthorize(ctx, "t", AuthorizeRequirement{Role: "farmer", OwnerID: "f-1"}, stubDeps(claimsFor("f-1", "farmer"), nil))
	if res.Failure != AuthorizeFailureNone || res.Claims.Subject != "f-1" {
		t.Fatalf("expected success, got %v", res.Failure)
	}
}

func TestRunAuthorizeNormalizesRequiredRole(t *testing.T) {
	ctx := context.Background()
	deps := stubDeps(claimsFor("v-1", "vet"), nil)
	deps.NormalizeRole = func(r string) (string, bool) {
		switch r {
		case "vet", "veterinarian":
			return "vet", true
		case "farmer":
			return "farmer", true
		}
		return "", false
	}

	res := RunAuthorize(ctx, "t", AuthorizeRequirement{Role: "veterinarian"}, deps)
	if res.Failure != AuthorizeFailureNone {
		t.Fatalf("expected alias requirement to pass, got %v", res.Failure)
	}

	res = RunAuthorize(ctx, "t", AuthorizeRequirement{Role: "pilot"}, deps)
	if res.Failure != AuthorizeFailureWrongRole || !errors.Is(res.Err, ErrUnknownRequiredRole) {
		t.Fatalf("expected WrongRole with ErrUnknownRequiredRole, got %v / %v", res.Failure, res.Err)
	}
}

func TestRunAuthorizeAdminOverride(t *testing.T) {
	ctx := context.Background()
	deps := stubDeps(claimsFor("a-1", "admin"), nil)

	if res := RunAuthorize(ctx, "t", AuthorizeRequirement{OwnerID: "f-1"}, deps); res.Failure != AuthorizeFailureNotOwner {
		t.Fatalf("expected admin without AllowAdmin to be NotOwner, got %v", res.Failure)
	}
	if res := RunAuthorize(ctx, "t", AuthorizeRequirement{OwnerID: "f-1", AllowAdmin: true}, deps); res.Failure != AuthorizeFailureNone {
		t.Fatalf("expected admin override to pass, got %v", res.Failure)
	}

	farmer := stubDeps(claimsFor("f-9", "farmer"), nil)
	if res := RunAuthorize(ctx, "t", AuthorizeRequirement{OwnerID: "f-1", AllowAdmin: true}, farmer); res.Failure != AuthorizeFailureNotOwner {
		t.Fatalf("expected AllowAdmin to not help non-admins, got %v", res.Failure)
	}
}

func TestRunAuthorizeRevocation(t *testing.T) {
	ctx := context.Background()
	deps := stubDeps(claimsFor("v-1", "vet"), nil)

	deps.IsRevoked = func(_ context.Context, id string) (bool, error) { return id == "jti-v-1", nil }
	if res := RunAuthorize(ctx, "t", AuthorizeRequirement{}, deps); res.Failure != AuthorizeFailureRevoked {
		t.Fatalf("expected Revoked, got %v", res.Failure)
	}

	backendErr := errors.New("redis down")
	deps.IsRevoked = func(context.Context, string) (bool, error) { return false, backendErr }
	res := RunAuthorize(ctx, "t", AuthorizeRequirement{}, deps)
	if res.Failure != AuthorizeFailureRevocationUnavailable || !errors.Is(res.Err, backendErr) {
		t.Fatalf("expected RevocationUnavailable, got %v / %v", res.Failure, res.Err)
	}
}

func TestRunAuthorizeRevocationPrecedesRoleCheck(t *testing.T) {
	deps := stubDeps(claimsFor("c-1", "customer"), nil)
	deps.IsRevoked = func(context.Context, string) (bool, error) { return true, nil }

	res := RunAuthorize(context.Background(), "t", AuthorizeRequirement{Role: "admin"}, deps)
	if res.Failure != AuthorizeFailureRevoked {
		t.Fatalf("expected Revoked before WrongRole, got %v", res.Failure)
	}
}
