package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MrEthical07/goGuard/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAuthorizeCommand(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		permit bool
		want   string
	}{
		{
			name: "manager cannot list",
			args: []string{"--actor", "manager", "--action", "list"},
			want: policy.ReasonNotAdministrator,
		},
		{
			name: "admin cannot delete owner",
			args: []string{"--actor", "admin", "--action", "delete", "--target", "owner"},
			want: policy.ReasonOwnerProtected,
		},
		{
			name: "owner cannot delete self",
			args: []string{"--actor", "owner", "--action", "delete", "--target", "owner", "--self"},
			want: policy.ReasonSelfDelete,
		},
		{
			name:   "admin updates sales via alias",
			args:   []string{"--actor", "Administrator", "--action", "update", "--target", "sales"},
			permit: true,
			want:   "permit: admin may update a sales",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runCLI(append([]string{"authorize"}, tc.args...)...)
			if tc.permit {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, errDenied)
			}
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestAuthorizeRejectsUnknownInput(t *testing.T) {
	_, err := runCLI("authorize", "--actor", "emperor", "--action", "list")
	require.ErrorIs(t, err, policy.ErrUnknownRole)

	_, err = runCLI("authorize", "--actor", "admin", "--action", "promote")
	require.ErrorIs(t, err, policy.ErrUnknownAction)

	_, err = runCLI("authorize", "--action", "list")
	require.Error(t, err)
}

func TestRolesCommandListsHighestFirst(t *testing.T) {
	out, err := runCLI("roles")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(policy.Roles())+1)
	assert.True(t, strings.HasPrefix(lines[1], "owner"))
	assert.Contains(t, lines[1], "true")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "client"))
}
