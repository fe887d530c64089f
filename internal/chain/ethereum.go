package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
)

// EthereumSource reads the block height from a JSON-RPC endpoint, so market
// windows track the same chain the reference prices come from.
type EthereumSource struct {
	client *ethclient.Client
}

// DialEthereum connects to the given JSON-RPC URL and verifies it answers a
// block-number query before returning the source.
func DialEthereum(ctx context.Context, rawURL string) (*EthereumSource, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rawURL, err)
	}
	if _, err := client.BlockNumber(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("chain: block number: %w", err)
	}
	return &EthereumSource{client: client}, nil
}

// Height returns the current head block number.
func (s *EthereumSource) Height(ctx context.Context) (uint64, error) {
	n, err := s.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: block number: %w", err)
	}
	return n, nil
}

// Close releases the underlying RPC connection.
func (s *EthereumSource) Close() {
	s.client.Close()
}
