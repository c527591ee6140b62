// Package account grants the invoking user access to the Docker daemon
// through the docker group.
package account

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/privilege"
)

// DockerGroup is the group whose members may use the daemon socket.
const DockerGroup = "docker"

// groupExists is the groupadd exit status for a group that already exists.
const groupExists = 9

// ErrNoUser is returned when the invoking user cannot be determined.
var ErrNoUser = errors.New("cannot determine invoking user")

// Provisioner creates the docker group and adds users to it.
type Provisioner struct {
	exec   privilege.Executor
	group  string
	logger config.Logger
}

// NewProvisioner creates a provisioner for the docker group.
func NewProvisioner(exec privilege.Executor, logger config.Logger) *Provisioner {
	return &Provisioner{
		exec:   exec,
		group:  DockerGroup,
		logger: config.OrNop(logger),
	}
}

// Provision ensures the group exists and username is a member of it.
func (p *Provisioner) Provision(ctx context.Context, username string) error {
	if username == "" {
		return ErrNoUser
	}

	prompt := fmt.Sprintf("Enter sudo password to add %s to the %s group:", username, p.group)

	groupadd := privilege.Command{Args: []string{"groupadd", p.group}, Prompt: prompt, CacheCredential: true}
	res, err := p.exec.Run(ctx, groupadd)
	if err != nil {
		return fmt.Errorf("create group %s: %w", p.group, err)
	}
	switch res.ExitCode {
	case 0:
		p.logger.Infow("created group", "group", p.group)
	case groupExists:
		p.logger.Debugw("group already exists", "group", p.group)
	default:
		return fmt.Errorf("create group %s: %w", p.group, privilege.Require(groupadd, res))
	}

	usermod := privilege.Command{Args: []string{"usermod", "-aG", p.group, username}, Prompt: prompt, CacheCredential: true}
	if err := privilege.RunRequired(ctx, p.exec, usermod); err != nil {
		return fmt.Errorf("add %s to group %s: %w", username, p.group, err)
	}

	p.logger.Infow("user added to group", "user", username, "group", p.group)
	return nil
}

// InvokingUser returns the name of the user who started the installer.
// Under sudo that is SUDO_USER rather than root.
func InvokingUser() (string, error) {
	return invokingUser(os.Getenv, user.Current)
}

func invokingUser(getenv func(string) string, current func() (*user.User, error)) (string, error) {
	if name := getenv("SUDO_USER"); name != "" {
		return name, nil
	}
	u, err := current()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoUser, err)
	}
	if u.Username == "" {
		return "", ErrNoUser
	}
	return u.Username, nil
}
