package geo

import (
	"context"
	"testing"
)

func TestLocatePrivateAddresses(t *testing.T) {
	ctx := context.Background()
	for _, addr := range []string{"127.0.0.1", "10.0.0.4", "192.168.1.20:54321", "::1"} {
		if got := Locate(ctx, addr); got != "Local Development" {
			t.Fatalf("Locate(%s): got %q", addr, got)
		}
	}
}

func TestLocateInvalidAddressTreatedAsLocal(t *testing.T) {
	if got := Locate(context.Background(), "not-an-ip"); got != "Local Development" {
		t.Fatalf("invalid address: got %q", got)
	}
}
