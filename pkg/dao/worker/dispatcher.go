package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	rate_limiter "github.com/dao-treasury/dao-server/pkg/rate"
)

// Commands accepted in the "command" header of a request
const (
	CommandCreateDao       = "create_dao"
	CommandAddMember       = "add_member"
	CommandRemoveMember    = "remove_member"
	CommandChangeThreshold = "change_threshold"
	CommandExecuteProposal = "execute_proposal"
	CommandVote            = "vote"
	CommandWithdraw        = "withdraw"
)

const dispatchOperation = "worker.dispatch"

var (
	ErrRateLimited = errors.New("too many commands for project")
)

// DaoService performs DAO operations on behalf of a project. Each operation
// returns a transaction signature, or the multisig address when creating a
// DAO.
type DaoService interface {
	CreateDao(ctx context.Context, projectID string) (string, error)
	AddMember(ctx context.Context, projectID, member string, permissions []string) (string, error)
	RemoveMember(ctx context.Context, projectID, member string) (string, error)
	ChangeThreshold(ctx context.Context, projectID string, threshold uint16) (string, error)
	ExecuteProposal(ctx context.Context, projectID string) (string, error)
	Vote(ctx context.Context, projectID, voter, vote string) (string, error)
	Withdraw(ctx context.Context, projectID string, isExecute bool, receiver string, amount uint64) (string, error)
}

type createDaoRequest struct {
	ProjectID string `json:"project_id"`
}

type addMemberRequest struct {
	ProjectID   string   `json:"project_id"`
	PublicKey   string   `json:"pubkey"`
	Permissions []string `json:"permissions"`
}

type removeMemberRequest struct {
	ProjectID string `json:"project_id"`
	PublicKey string `json:"pubkey"`
}

type changeThresholdRequest struct {
	ProjectID    string `json:"project_id"`
	NewThreshold uint16 `json:"new_threshold"`
}

type executeProposalRequest struct {
	ProjectID string `json:"project_id"`
}

type voteRequest struct {
	ProjectID string `json:"project_id"`
	Voter     string `json:"voter"`
	Vote      string `json:"vote"`
}

type withdrawRequest struct {
	ProjectID string `json:"project_id"`
	IsExecute bool   `json:"is_execute"`
	Receiver  string `json:"receiver"`
	Amount    uint64 `json:"amount"`
}

// Dispatcher routes a decoded command to the DAO service.
type Dispatcher struct {
	log     *logrus.Entry
	service DaoService
	limiter rate_limiter.Limiter
}

// NewDispatcher returns a Dispatcher that allows at most maxPerProjectPerSecond
// commands per project each second. Zero disables limiting.
func NewDispatcher(service DaoService, maxPerProjectPerSecond uint64) *Dispatcher {
	var limiter rate_limiter.Limiter = &rate_limiter.NoLimiter{}
	if maxPerProjectPerSecond > 0 {
		limiter = rate_limiter.NewLocalRateLimiter(rate.Limit(maxPerProjectPerSecond))
	}

	return &Dispatcher{
		log:     logrus.StandardLogger().WithField("type", "dao/worker/dispatcher"),
		service: service,
		limiter: limiter,
	}
}

// Dispatch runs command with its JSON payload. It returns the project the
// command applies to, when known, along with a human readable result.
func (d *Dispatcher) Dispatch(ctx context.Context, command string, payload []byte) (projectID string, message string, err error) {
	var run func() (string, error)

	switch command {
	case CommandCreateDao:
		var req createDaoRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.CreateDao(ctx, req.ProjectID)
		}
	case CommandAddMember:
		var req addMemberRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.AddMember(ctx, req.ProjectID, req.PublicKey, req.Permissions)
		}
	case CommandRemoveMember:
		var req removeMemberRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.RemoveMember(ctx, req.ProjectID, req.PublicKey)
		}
	case CommandChangeThreshold:
		var req changeThresholdRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.ChangeThreshold(ctx, req.ProjectID, req.NewThreshold)
		}
	case CommandExecuteProposal:
		var req executeProposalRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.ExecuteProposal(ctx, req.ProjectID)
		}
	case CommandVote:
		var req voteRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.Vote(ctx, req.ProjectID, req.Voter, req.Vote)
		}
	case CommandWithdraw:
		var req withdrawRequest
		projectID, err = decode(payload, &req)
		run = func() (string, error) {
			return d.service.Withdraw(ctx, req.ProjectID, req.IsExecute, req.Receiver, req.Amount)
		}
	default:
		return "", "", multisig.NewInvalidArgumentError(dispatchOperation, errors.Errorf("Unknown command: %s", command))
	}
	if err != nil {
		return projectID, "", err
	}

	log := d.log.WithFields(logrus.Fields{
		"command":    command,
		"project_id": projectID,
	})

	if err := d.allow(projectID); err != nil {
		log.WithError(err).Warn("command rejected")
		return projectID, "", err
	}

	result, err := run()
	if err != nil {
		log.WithError(err).Warn("command failed")
		return projectID, "", err
	}

	message = fmt.Sprintf("Dao %s: %s created successfully", projectID, result)
	log.Info(message)
	return projectID, message, nil
}

func (d *Dispatcher) allow(projectID string) error {
	allowed, err := d.limiter.Allow(projectID)
	if err != nil {
		return errors.Wrap(err, "error checking rate limit")
	}
	if !allowed {
		return multisig.NewInvalidArgumentError(dispatchOperation, ErrRateLimited)
	}
	return nil
}

// decode unmarshals payload into req and returns its project_id, which every
// command requires.
func decode(payload []byte, req interface{}) (string, error) {
	if err := json.Unmarshal(payload, req); err != nil {
		return "", multisig.NewInvalidArgumentError(dispatchOperation, errors.New("Could not parse raw string into json"))
	}

	var envelope struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.ProjectID) == 0 {
		return "", multisig.NewInvalidArgumentError(dispatchOperation, errors.New("project_id is required"))
	}
	return envelope.ProjectID, nil
}
