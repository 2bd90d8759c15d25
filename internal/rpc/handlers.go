package rpc

import (
	"context"

	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

func (s *Server) handleGetUTXOs(ctx context.Context, req *Request) (interface{}, *Error) {
	return s.listUTXOs(ctx, req, s.backend.UTXOs)
}

func (s *Server) handleGetAddressUTXOs(ctx context.Context, req *Request) (interface{}, *Error) {
	return s.listUTXOs(ctx, req, s.backend.AddressUTXOs)
}

type utxoLister func(context.Context, types.Address) ([]*utxo.UTXO, error)

func (s *Server) listUTXOs(ctx context.Context, req *Request, list utxoLister) (interface{}, *Error) {
	var p AddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	addr, rpcErr := s.parseAddress(p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	utxos, err := list(ctx, addr)
	if err != nil {
		return nil, ledgerError(err)
	}
	if utxos == nil {
		utxos = []*utxo.UTXO{}
	}
	return &UTXOListResult{Address: addr.String(), UTXOs: utxos}, nil
}

func (s *Server) handleGetInfo(ctx context.Context, _ *Request) (interface{}, *Error) {
	info, err := s.backend.Info(ctx)
	if err != nil {
		return nil, ledgerError(err)
	}
	return info, nil
}

func (s *Server) handleFund(ctx context.Context, req *Request) (interface{}, *Error) {
	var p FundParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	addr, rpcErr := s.parseAddress(p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Amount == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "amount must be positive"}
	}
	op, err := s.backend.Fund(ctx, addr, p.Amount)
	if err != nil {
		return nil, ledgerError(err)
	}
	s.logger.Info().Str("address", addr.String()).Uint64("lovelace", p.Amount).Msg("Faucet payment")
	return &FundResult{Outpoint: op}, nil
}

func (s *Server) handleTxBuild(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TxBuildParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Spec == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "spec required"}
	}
	t, err := s.backend.Build(ctx, p.Spec)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &TxBuildResult{Transaction: t, Fee: t.Fee}, nil
}

func (s *Server) handleTxSubmit(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TxSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction required"}
	}
	id, err := s.backend.Submit(ctx, p.Transaction)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &TxSubmitResult{TxID: id}, nil
}
