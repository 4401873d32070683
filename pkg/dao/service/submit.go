package service

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	"github.com/dao-treasury/dao-server/pkg/metrics"
	"github.com/dao-treasury/dao-server/pkg/retry"
	"github.com/dao-treasury/dao-server/pkg/retry/backoff"
	"github.com/dao-treasury/dao-server/pkg/solana"
)

var (
	errNotConfirmed = errors.New("transaction not confirmed")
)

// submit signs, submits and waits for txn to reach the configured commitment.
// Every failure is reported as a submission error.
func (s *Service) submit(ctx context.Context, op string, txn *solana.Transaction, signers ...ed25519.PrivateKey) (string, error) {
	log := s.log.WithFields(logrus.Fields{
		"method":    "submit",
		"operation": op,
	})

	if err := txn.Sign(signers...); err != nil {
		return "", multisig.NewSubmissionError(op, errors.Wrap(err, "error signing transaction"))
	}

	commitment, err := solana.ParseCommitment(s.conf.confirmationCommitment.Get(ctx))
	if err != nil {
		return "", multisig.NewSubmissionError(op, err)
	}

	submitted := time.Now()
	sig, err := s.client.SubmitTransaction(*txn, commitment)
	if err != nil {
		log.WithError(err).Warn("failure submitting transaction")
		return "", multisig.NewSubmissionError(op, err)
	}

	encoded := base58.Encode(sig[:])
	log = log.WithField("signature", encoded)

	if err := s.waitForConfirmation(ctx, sig, commitment); err != nil {
		log.WithError(err).Warn("failure confirming transaction")
		return "", multisig.NewSubmissionError(op, err)
	}

	recordConfirmationLatency(ctx, time.Since(submitted))
	log.Debug("transaction confirmed")
	recordTransactionSubmittedEvent(ctx, op, encoded)
	return encoded, nil
}

// Airdrop requests sol SOL for address and waits for it to be confirmed. It's
// only supported by test clusters.
func (s *Service) Airdrop(ctx context.Context, address string, sol uint64) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Airdrop")
	defer tracer.End()
	tracer.AddAttribute("address", address)

	account, err := ParsePublicKey(address)
	if err != nil {
		tracer.OnError(err)
		return "", multisig.NewInvalidArgumentError("airdrop", err)
	}

	commitment, err := solana.ParseCommitment(s.conf.confirmationCommitment.Get(ctx))
	if err != nil {
		tracer.OnError(err)
		return "", err
	}

	sig, err := s.client.RequestAirdrop(account, sol*LamportsPerSol, commitment)
	if err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "error requesting airdrop")
	}

	if err := s.waitForConfirmation(ctx, sig, commitment); err != nil {
		tracer.OnError(err)
		return "", err
	}

	encoded := base58.Encode(sig[:])
	s.log.WithFields(logrus.Fields{
		"method":    "Airdrop",
		"address":   address,
		"sol":       sol,
		"signature": encoded,
	}).Info("airdrop confirmed")
	return encoded, nil
}

func (s *Service) waitForConfirmation(ctx context.Context, sig solana.Signature, commitment solana.Commitment) error {
	timeout := s.conf.confirmationTimeout.Get(ctx)
	interval := s.conf.confirmationPollInterval.Get(ctx)
	deadline := time.Now().Add(timeout)

	var txErr error
	_, err := retry.Retry(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			status, err := s.client.GetSignatureStatus(sig, commitment)
			if err != nil {
				return err
			}
			if status.ErrorResult != nil {
				txErr = status.ErrorResult
				return nil
			}
			if !isCommitted(status, commitment) {
				return errNotConfirmed
			}
			return nil
		},
		retry.Context(ctx),
		retry.Deadline(deadline),
		retry.BackoffWithContext(ctx, backoff.Constant(interval), interval),
	)
	if err != nil {
		return errors.Wrap(err, "error waiting for confirmation")
	}
	return txErr
}

func isCommitted(status *solana.SignatureStatus, commitment solana.Commitment) bool {
	switch commitment {
	case solana.CommitmentFinalized:
		return status.Finalized()
	case solana.CommitmentConfirmed:
		return status.Confirmed()
	}
	return true
}
