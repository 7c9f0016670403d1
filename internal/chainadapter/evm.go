// Package chainadapter builds and signs transactions for the chain
// families an Operation may target (EVM, Bitcoin, native ledger), calling
// into the tee.Signer for the actual cryptographic signature. The EVM path
// is grounded directly on
// payout-engine/internal/service/payout.go's buildNativeTransfer and
// buildERC20Transfer (EIP-1559 DynamicFeeTx, 20% gas buffer), with the
// signing step replaced by the tee.Signer interface in place of a raw
// private key.
package chainadapter

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/protocol-bank/custody-engine/internal/addresses"
	"github.com/protocol-bank/custody-engine/internal/chainnonce"
	"github.com/protocol-bank/custody-engine/internal/derivation"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/tee"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
)

const erc20ABI = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// EVMAdapter dispatches EVM operations for the wallet actor's accounts.
type EVMAdapter struct {
	mu       sync.RWMutex
	clients  map[uint64]*ethclient.Client
	nonces   *chainnonce.Manager
	signer   tee.Signer
	accounts *walletacct.Registry
	erc20ABI abi.ABI
}

func NewEVMAdapter(nonces *chainnonce.Manager, signer tee.Signer, accounts *walletacct.Registry) (*EVMAdapter, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("chainadapter: parse erc20 abi: %w", err)
	}
	return &EVMAdapter{
		clients:  make(map[uint64]*ethclient.Client),
		nonces:   nonces,
		signer:   signer,
		accounts: accounts,
		erc20ABI: parsed,
	}, nil
}

// AddChainClient registers the ethclient used for a given EVM chain id.
func (a *EVMAdapter) AddChainClient(chainID uint64, client *ethclient.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clients[chainID] = client
	a.nonces.AddChainClient(chainID, client)
}

func (a *EVMAdapter) client(chainID uint64) (*ethclient.Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("chainadapter: no client for chain %d", chainID)
	}
	return c, nil
}

// accountContext resolves an account's cached pubkey, derivation path/key
// id, and EVM-derived from-address.
func (a *EVMAdapter) accountContext(accountID string) (*walletacct.WalletAccount, []byte, derivation.KeyID, string, error) {
	acct, err := a.accounts.Get(accountID)
	if err != nil {
		return nil, nil, derivation.KeyID{}, "", err
	}
	if acct.Ledger.ECDSAPubKey == nil {
		return nil, nil, derivation.KeyID{}, "", fmt.Errorf("chainadapter: account %s has no cached public key", accountID)
	}
	from, err := addresses.EVM(acct.Ledger.ECDSAPubKey)
	if err != nil {
		return nil, nil, derivation.KeyID{}, "", fmt.Errorf("chainadapter: derive from address: %w", err)
	}
	keyID := derivation.KeyIDFor(acct.Environment)
	return acct, acct.Ledger.ECDSAPubKey, keyID, from, nil
}

// signEVMTx hashes tx per its signer scheme, requests a signature from the
// TEE, reconstructs the recovery id by trial against the cached public key
// (per spec §4.1), and returns the fully assembled signed transaction.
func (a *EVMAdapter) signEVMTx(ctx context.Context, acct *walletacct.WalletAccount, pubKey []byte, keyID derivation.KeyID, tx *types.Transaction) (*types.Transaction, error) {
	chainSigner := types.LatestSignerForChainID(tx.ChainId())
	hash := chainSigner.Hash(tx)

	path := derivation.Path(acct.Subaccount)
	cycles := derivation.SignCycles(acct.Environment)
	sig, err := a.signer.SignWithECDSA(ctx, hash[:], path, keyID, cycles)
	if err != nil {
		return nil, fmt.Errorf("sign evm tx: %w", err)
	}

	full, err := recoverableSignature(sig, hash[:], pubKey)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(chainSigner, full)
}

// recoverableSignature reconstructs the 65-byte (r, s, v) signature from a
// bare 64-byte compact signature by trying both recovery ids and keeping
// the one whose recovered public key matches pubKey.
func recoverableSignature(compact, hash, pubKey []byte) ([]byte, error) {
	for v := byte(0); v < 2; v++ {
		candidate := append(append([]byte{}, compact...), v)
		recovered, err := gethcrypto.Ecrecover(hash, candidate)
		if err != nil {
			continue
		}
		if string(recovered) == string(pubKeyUncompressedFrom(pubKey)) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("chainadapter: could not reconstruct recovery id")
}

func pubKeyUncompressedFrom(compressed []byte) []byte {
	pub, err := gethcrypto.DecompressPubkey(compressed)
	if err != nil {
		return nil
	}
	return gethcrypto.FromECDSAPub(pub)
}

func (a *EVMAdapter) gasPriceWithBuffer(ctx context.Context, client *ethclient.Client) (*big.Int, error) {
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(120))
	return gasPrice.Div(gasPrice, big.NewInt(100)), nil
}

// SendEVM builds, signs, and broadcasts a native-token EIP-1559 transfer.
func (a *EVMAdapter) SendEVM(ctx context.Context, accountID string, chainID uint64, to, amountWei string) (string, error) {
	acct, pubKey, keyID, from, err := a.accountContext(accountID)
	if err != nil {
		return "", err
	}
	client, err := a.client(chainID)
	if err != nil {
		return "", err
	}
	value, ok := new(big.Int).SetString(amountWei, 10)
	if !ok {
		return "", fmt.Errorf("chainadapter: invalid amount %q", amountWei)
	}
	toAddr := common.HexToAddress(to)
	fromAddr := common.HexToAddress(from)

	nonceVal, release, err := a.nonces.GetNonce(ctx, chainID, fromAddr)
	if err != nil {
		return "", fmt.Errorf("chainadapter: get nonce: %w", err)
	}
	defer release()

	gasPrice, err := a.gasPriceWithBuffer(ctx, client)
	if err != nil {
		return "", err
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: fromAddr, To: &toAddr, Value: value})
	if err != nil {
		gasLimit = 21000
	}
	gasLimit = gasLimit * 120 / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(chainID),
		Nonce:     nonceVal,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gasLimit,
		To:        &toAddr,
		Value:     value,
	})

	signed, err := a.signEVMTx(ctx, acct, pubKey, keyID, tx)
	if err != nil {
		a.nonces.ResetNonce(ctx, chainID, fromAddr)
		return "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		a.nonces.ResetNonce(ctx, chainID, fromAddr)
		return "", fmt.Errorf("chainadapter: broadcast: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// SendERC20 builds, signs, and broadcasts an ERC20 transfer.
func (a *EVMAdapter) SendERC20(ctx context.Context, accountID string, chainID uint64, token, to, amount string) (string, error) {
	acct, pubKey, keyID, from, err := a.accountContext(accountID)
	if err != nil {
		return "", err
	}
	client, err := a.client(chainID)
	if err != nil {
		return "", err
	}
	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return "", fmt.Errorf("chainadapter: invalid amount %q", amount)
	}
	tokenAddr := common.HexToAddress(token)
	toAddr := common.HexToAddress(to)
	fromAddr := common.HexToAddress(from)

	data, err := a.erc20ABI.Pack("transfer", toAddr, amt)
	if err != nil {
		return "", fmt.Errorf("chainadapter: pack transfer: %w", err)
	}

	nonceVal, release, err := a.nonces.GetNonce(ctx, chainID, fromAddr)
	if err != nil {
		return "", fmt.Errorf("chainadapter: get nonce: %w", err)
	}
	defer release()

	gasPrice, err := a.gasPriceWithBuffer(ctx, client)
	if err != nil {
		return "", err
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: fromAddr, To: &tokenAddr, Data: data})
	if err != nil {
		gasLimit = 100000
	}
	gasLimit = gasLimit * 120 / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(chainID),
		Nonce:     nonceVal,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gasLimit,
		To:        &tokenAddr,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signed, err := a.signEVMTx(ctx, acct, pubKey, keyID, tx)
	if err != nil {
		a.nonces.ResetNonce(ctx, chainID, fromAddr)
		return "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		a.nonces.ResetNonce(ctx, chainID, fromAddr)
		return "", fmt.Errorf("chainadapter: broadcast: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// DeployContract builds, signs, and broadcasts a contract-creation
// transaction, returning the signed tx hash and the deterministically
// computed contract address.
func (a *EVMAdapter) DeployContract(ctx context.Context, accountID string, chainID uint64, initCodeHex string) (string, string, error) {
	acct, pubKey, keyID, from, err := a.accountContext(accountID)
	if err != nil {
		return "", "", err
	}
	client, err := a.client(chainID)
	if err != nil {
		return "", "", err
	}
	fromAddr := common.HexToAddress(from)
	data := common.FromHex(initCodeHex)

	nonceVal, release, err := a.nonces.GetNonce(ctx, chainID, fromAddr)
	if err != nil {
		return "", "", fmt.Errorf("chainadapter: get nonce: %w", err)
	}
	defer release()

	gasPrice, err := a.gasPriceWithBuffer(ctx, client)
	if err != nil {
		return "", "", err
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: fromAddr, Data: data})
	if err != nil {
		gasLimit = 500000
	}
	gasLimit = gasLimit * 120 / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(chainID),
		Nonce:     nonceVal,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gasLimit,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signed, err := a.signEVMTx(ctx, acct, pubKey, keyID, tx)
	if err != nil {
		a.nonces.ResetNonce(ctx, chainID, fromAddr)
		return "", "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		a.nonces.ResetNonce(ctx, chainID, fromAddr)
		return "", "", fmt.Errorf("chainadapter: broadcast: %w", err)
	}
	contractAddr := gethcrypto.CreateAddress(fromAddr, nonceVal)
	return signed.Hash().Hex(), contractAddr.Hex(), nil
}

// SignMessage hashes message per EIP-191 and signs it via the TEE.
func (a *EVMAdapter) SignMessage(ctx context.Context, accountID string, message []byte) ([]byte, error) {
	acct, pubKey, keyID, _, err := a.accountContext(accountID)
	if err != nil {
		return nil, err
	}
	prefixed := []byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message)))
	prefixed = append(prefixed, message...)
	hash := gethcrypto.Keccak256(prefixed)

	path := derivation.Path(acct.Subaccount)
	cycles := derivation.SignCycles(acct.Environment)
	sig, err := a.signer.SignWithECDSA(ctx, hash, path, keyID, cycles)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return recoverableSignature(sig, hash, pubKey)
}

// SignTransaction signs a caller-assembled unsigned transaction (RLP-encoded
// hex) and returns the signed RLP hex, without broadcasting it — used by
// the EvmSignTransaction/EvmSignRawTransaction operations, which return the
// signed artifact to the caller rather than dispatching it.
func (a *EVMAdapter) SignTransaction(ctx context.Context, accountID string, chainID uint64, unsignedTxHex string) (string, error) {
	acct, pubKey, keyID, _, err := a.accountContext(accountID)
	if err != nil {
		return "", err
	}
	var tx types.Transaction
	if err := tx.UnmarshalBinary(common.FromHex(unsignedTxHex)); err != nil {
		return "", fmt.Errorf("chainadapter: decode unsigned tx: %w", err)
	}
	signed, err := a.signEVMTx(ctx, acct, pubKey, keyID, &tx)
	if err != nil {
		return "", err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("chainadapter: encode signed tx: %w", err)
	}
	return common.Bytes2Hex(raw), nil
}
