package config

import (
	"testing"
)

func TestProtocol_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		protocol Protocol
		want     string
	}{
		{"TCP", ProtoTCP, "tcp"},
		{"WebSocket", ProtoWS, "ws"},
		{"WebSocket Secure", ProtoWSS, "wss"},
		{"KCP", ProtoKCP, "kcp"},
		{"Multiplexed", ProtoMux, "mux"},
		{"Invalid", Protocol(999), ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.protocol.String(); got != tc.want {
				t.Errorf("Protocol.String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseProtocol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    Protocol
		wantErr bool
	}{
		{"tcp", "tcp", ProtoTCP, false},
		{"empty defaults to tcp", "", ProtoTCP, false},
		{"ws", "ws", ProtoWS, false},
		{"wss", "wss", ProtoWSS, false},
		{"kcp", "kcp", ProtoKCP, false},
		{"mux", "mux", ProtoMux, false},
		{"unknown", "udp", ProtoTCP, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseProtocol(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseProtocol(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("ParseProtocol(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestServer_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Server
		wantErr bool
	}{
		{
			name: "valid with ephemeral port",
			cfg:  &Server{Port: 0},
		},
		{
			name: "valid with ssl and key",
			cfg: &Server{
				Shared: Shared{SSL: true, Key: "secret"},
				Port:   8080,
			},
		},
		{
			name:    "key without ssl",
			cfg:     &Server{Shared: Shared{Key: "secret"}, Port: 8080},
			wantErr: true,
		},
		{
			name:    "negative port",
			cfg:     &Server{Port: -1},
			wantErr: true,
		},
		{
			name:    "port too high",
			cfg:     &Server{Port: 65536},
			wantErr: true,
		},
		{
			name:    "negative max connections",
			cfg:     &Server{Port: 8080, MaxConnections: -1},
			wantErr: true,
		},
		{
			name:    "negative queue limit",
			cfg:     &Server{Shared: Shared{QueueLimit: -1}, Port: 8080},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.cfg.Validate()
			if (len(errs) > 0) != tc.wantErr {
				t.Errorf("Server.Validate() errors = %v, wantErr %v", errs, tc.wantErr)
			}
		})
	}
}

func TestClient_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Client
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  &Client{Host: "localhost", Port: 8080},
		},
		{
			name: "valid with remote addr and no port",
			cfg:  &Client{RemoteAddr: "10.0.0.1:7000"},
		},
		{
			name:    "port zero without remote addr",
			cfg:     &Client{Host: "localhost", Port: 0},
			wantErr: true,
		},
		{
			name: "valid insecure ssl",
			cfg: &Client{
				Shared: Shared{SSL: true},
				Host:   "localhost", Port: 443,
				Insecure: true,
			},
		},
		{
			name:    "insecure without ssl",
			cfg:     &Client{Host: "localhost", Port: 443, Insecure: true},
			wantErr: true,
		},
		{
			name: "insecure with key",
			cfg: &Client{
				Shared: Shared{SSL: true, Key: "secret"},
				Host:   "localhost", Port: 443,
				Insecure: true,
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.cfg.Validate()
			if (len(errs) > 0) != tc.wantErr {
				t.Errorf("Client.Validate() errors = %v, wantErr %v", errs, tc.wantErr)
			}
		})
	}
}

func TestClient_Addr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Client
		want string
	}{
		{"host and port", &Client{Host: "example.com", Port: 4444}, "example.com:4444"},
		{"remote addr override", &Client{Host: "ignored", Port: 1, RemoteAddr: "10.1.2.3:9"}, "10.1.2.3:9"},
		{"ipv6 host", &Client{Host: "::1", Port: 8080}, "[::1]:8080"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.cfg.Addr(); got != tc.want {
				t.Errorf("Addr() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestShared_GetKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty key", "", ""},
		{"with key", "mykey", KeySalt + "mykey"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := &Shared{Key: tc.key}
			if got := c.GetKey(); got != tc.want {
				t.Errorf("GetKey() = %q, want %q", got, tc.want)
			}
		})
	}
}
