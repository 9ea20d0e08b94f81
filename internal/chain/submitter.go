package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/guard"
)

// tournamentABI is the fragment of the tournament contract the submitter calls.
const tournamentABI = `[{"inputs":[{"name":"player","type":"address"},{"name":"tournamentId","type":"uint256"},{"name":"score","type":"uint256"}],"name":"submitScore","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// submitGasLimit bounds a submitScore call. The contract writes one storage
// slot per submission.
const submitGasLimit = 200_000

// breakerKey identifies the RPC endpoint in the circuit breaker.
const breakerKey = "chain-rpc"

// Submitter pushes accepted tournament scores onto the chain contract. RPC
// failures trip a circuit breaker so a dead endpoint sheds load fast instead
// of timing out every settlement event.
type Submitter struct {
	client   *ethclient.Client
	contract common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	from     common.Address
	abi      abi.ABI
	breaker  *guard.CircuitBreaker
	logger   *slog.Logger
}

// NewSubmitter dials the RPC endpoint and prepares the signer.
func NewSubmitter(ctx context.Context, rpcURL, contractHex, privateKeyHex string, chainID int64, breaker *guard.CircuitBreaker, logger *slog.Logger) (*Submitter, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse submitter key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(tournamentABI))
	if err != nil {
		return nil, fmt.Errorf("parse tournament abi: %w", err)
	}

	return &Submitter{
		client:   client,
		contract: common.HexToAddress(contractHex),
		chainID:  big.NewInt(chainID),
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		abi:      parsed,
		breaker:  breaker,
		logger:   logger,
	}, nil
}

// SubmitScore submits an accepted settlement's score for its tournament.
// Settlements without a wallet address are skipped: the player has not linked
// one, and points were already credited off-chain.
func (s *Submitter) SubmitScore(ctx context.Context, settlement *domain.RewardSettlement) (string, error) {
	if settlement.WalletAddress == "" {
		s.logger.Debug("skipping chain submission, no wallet", "session_id", settlement.SessionID)
		return "", nil
	}
	if err := domain.ValidateWalletAddress(settlement.WalletAddress); err != nil {
		return "", domain.ErrValidation(err.Error())
	}
	if res := s.breaker.Check(ctx, breakerKey); !res.Allowed {
		return "", domain.ErrConflict("chain rpc circuit open, submission deferred")
	}

	txHash, err := s.send(ctx, settlement)
	if err != nil {
		s.breaker.RecordFailure(breakerKey)
		return "", err
	}
	s.breaker.RecordSuccess(breakerKey)

	s.logger.Info("score submitted on chain",
		"session_id", settlement.SessionID,
		"tournament_id", settlement.TournamentID,
		"tx_hash", txHash,
	)
	return txHash, nil
}

func (s *Submitter) send(ctx context.Context, settlement *domain.RewardSettlement) (string, error) {
	data, err := s.abi.Pack("submitScore",
		common.HexToAddress(settlement.WalletAddress),
		big.NewInt(settlement.TournamentID),
		big.NewInt(settlement.Score),
	)
	if err != nil {
		return "", fmt.Errorf("pack submitScore: %w", err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, s.contract, big.NewInt(0), submitGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// Close releases the RPC connection.
func (s *Submitter) Close() {
	s.client.Close()
}
