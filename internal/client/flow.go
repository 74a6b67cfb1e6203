package client

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/osrplabs/osrp/pkg/osrp"
	"github.com/osrplabs/osrp/pkg/protocol"
)

// Flow orchestrates registration and login against one or more servers.
// The first server is the authentication server; every server (including
// the first) contributes an OPRF evaluation, in a fixed order that the
// verifier hash binds permanently.
type Flow struct {
	protocol *osrp.Client
	servers  []*Client
}

// NewFlow creates a flow over the given API clients. At least one server
// is required.
func NewFlow(servers []*Client) (*Flow, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("client: at least one server is required")
	}
	return &Flow{protocol: osrp.NewClient(), servers: servers}, nil
}

// deriveVerifierHash runs the OPRF round against every server in order
// and folds the outputs with the private verifier into the exponent x.
func (f *Flow) deriveVerifierHash(ctx context.Context, salt, username, password string) (string, error) {
	sk, err := f.protocol.DerivePrivateKey(salt, username, password)
	if err != nil {
		return "", err
	}
	pv, err := f.protocol.DerivePrivateVerifier(sk)
	if err != nil {
		return "", err
	}

	parts := []string{hex.EncodeToString(pv)}
	for _, server := range f.servers {
		state, request, err := f.protocol.BlindOPRFInput(pv)
		if err != nil {
			return "", err
		}
		response, err := server.EvaluateOPRF(ctx, username, request)
		if err != nil {
			return "", err
		}
		output, err := f.protocol.FinalizeOPRF(state, response)
		if err != nil {
			return "", err
		}
		parts = append(parts, output)
	}

	return f.protocol.DeriveVerifierHash(parts...)
}

// Register derives a fresh verifier and creates the user record on the
// authentication server.
func (f *Flow) Register(ctx context.Context, username, password string) error {
	salt, err := f.protocol.GenerateSalt()
	if err != nil {
		return err
	}
	x, err := f.deriveVerifierHash(ctx, salt, username, password)
	if err != nil {
		return err
	}
	verifier, err := f.protocol.DerivePublicVerifier(x)
	if err != nil {
		return err
	}

	return f.servers[0].Register(ctx, protocol.RegisterRequest{
		Username: username,
		Salt:     salt,
		Verifier: verifier,
	})
}

// Login runs the full login exchange and returns the mutual session key
// as hex. The session token for follow-up API calls is captured on the
// authentication server's client.
func (f *Flow) Login(ctx context.Context, username, password string) (string, error) {
	ephemeral, err := f.protocol.GenerateEphemeral()
	if err != nil {
		return "", err
	}

	initResp, err := f.servers[0].LoginInit(ctx, username, ephemeral.Public)
	if err != nil {
		return "", err
	}

	x, err := f.deriveVerifierHash(ctx, initResp.Salt, username, password)
	if err != nil {
		return "", err
	}

	session, err := f.protocol.DeriveSession(ephemeral.Secret, initResp.B, initResp.Salt, username, x)
	if err != nil {
		return "", err
	}

	verifyResp, err := f.servers[0].LoginVerify(ctx, initResp.LoginID, session.Proof)
	if err != nil {
		return "", err
	}

	if err := f.protocol.VerifySession(ephemeral.Public, session, verifyResp.ServerProof); err != nil {
		return "", err
	}
	return session.Key, nil
}
