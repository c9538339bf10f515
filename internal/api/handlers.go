package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
	"liquidityCore/internal/model"
	"liquidityCore/internal/service"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type registerAssetRequest struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type pairRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type faucetRequest struct {
	Account string `json:"account"`
	Type    string `json:"type"`
	Amount  uint64 `json:"amount"`
}

type supplyRequest struct {
	Account string `json:"account"`
	A       string `json:"a"`
	B       string `json:"b"`
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}

type removeRequest struct {
	Account string `json:"account"`
	A       string `json:"a"`
	B       string `json:"b"`
	Shares  uint64 `json:"shares"`
}

type swapRequest struct {
	Account    string `json:"account"`
	A          string `json:"a"`
	B          string `json:"b"`
	AmountAIn  uint64 `json:"amount_a_in"`
	AmountBIn  uint64 `json:"amount_b_in"`
	AmountAOut uint64 `json:"amount_a_out"`
	AmountBOut uint64 `json:"amount_b_out"`
}

type amountsResponse struct {
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// mutation serializes h and commits after it succeeds.
func (s *Server) mutation(h func(r *http.Request) (int, any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		status, body, err := h(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.commit(r.Context()); err != nil {
			s.logger.Error("commit failed", zap.String("path", r.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "commit failed"})
			return
		}
		writeJSON(w, status, body)
	}
}

func (s *Server) listPools(w http.ResponseWriter, _ *http.Request) {
	infos := s.svc.Registry().Pools()
	out := make([]model.PoolRecord, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Record())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) showPool(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a, b, err := parsePair(vars["a"], vars["b"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.svc.Registry().Info(a, b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info.Record())
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAccount(mux.Vars(r)["account"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := parseType(r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account.Hex(),
		"type":    t.String(),
		"amount":  s.svc.Balance(account, t),
	})
}

func (s *Server) registerAsset(r *http.Request) (int, any, error) {
	var req registerAssetRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	t, err := parseType(req.Type)
	if err != nil {
		return 0, nil, err
	}
	if err := s.svc.RegisterAsset(t, req.Name, req.Symbol, req.Decimals); err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, map[string]string{"type": t.String()}, nil
}

func (s *Server) createPool(r *http.Request) (int, any, error) {
	var req pairRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	a, b, err := parsePair(req.A, req.B)
	if err != nil {
		return 0, nil, err
	}
	info, err := s.svc.CreatePool(a, b)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, info.Record(), nil
}

func (s *Server) faucet(r *http.Request) (int, any, error) {
	var req faucetRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	account, err := parseAccount(req.Account)
	if err != nil {
		return 0, nil, err
	}
	t, err := parseType(req.Type)
	if err != nil {
		return 0, nil, err
	}
	if err := s.svc.Fund(account, t, req.Amount); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]uint64{"balance": s.svc.Balance(account, t)}, nil
}

func (s *Server) supply(r *http.Request) (int, any, error) {
	var req supplyRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	account, err := parseAccount(req.Account)
	if err != nil {
		return 0, nil, err
	}
	a, b, err := parsePair(req.A, req.B)
	if err != nil {
		return 0, nil, err
	}
	shares, err := s.svc.Supply(account, a, b, req.AmountA, req.AmountB)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]uint64{"shares": shares}, nil
}

func (s *Server) remove(r *http.Request) (int, any, error) {
	var req removeRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	account, err := parseAccount(req.Account)
	if err != nil {
		return 0, nil, err
	}
	a, b, err := parsePair(req.A, req.B)
	if err != nil {
		return 0, nil, err
	}
	outA, outB, err := s.svc.Remove(account, a, b, req.Shares)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, amountsResponse{AmountA: outA, AmountB: outB}, nil
}

func (s *Server) swap(r *http.Request) (int, any, error) {
	var req swapRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	account, err := parseAccount(req.Account)
	if err != nil {
		return 0, nil, err
	}
	a, b, err := parsePair(req.A, req.B)
	if err != nil {
		return 0, nil, err
	}
	outA, outB, err := s.svc.Swap(account, a, b, req.AmountAIn, req.AmountBIn, req.AmountAOut, req.AmountBOut)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, amountsResponse{AmountA: outA, AmountB: outB}, nil
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func parseAccount(input string) (common.Address, error) {
	account, err := service.ParseAccount(input)
	if err != nil {
		return account, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return account, nil
}

func parseType(input string) (asset.TypeID, error) {
	t, err := asset.ParseTypeID(input)
	if err != nil {
		return t, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return t, nil
}

func parsePair(a, b string) (asset.TypeID, asset.TypeID, error) {
	typeA, typeB, err := service.ParsePair(a, b)
	if err != nil {
		return typeA, typeB, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return typeA, typeB, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, amm.ErrPoolAlreadyExists), errors.Is(err, asset.ErrCoinAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, amm.ErrInvalidPair),
		errors.Is(err, amm.ErrUninitializedAsset),
		errors.Is(err, amm.ErrInsufficientInitialLiquidity),
		errors.Is(err, amm.ErrZeroLiquidityMinted),
		errors.Is(err, amm.ErrBelowMinimumLiquidity),
		errors.Is(err, amm.ErrZeroRedemption),
		errors.Is(err, amm.ErrNoAmountProvided),
		errors.Is(err, amm.ErrInvariantViolated),
		errors.Is(err, amm.ErrWrongShareToken),
		errors.Is(err, amm.ErrReservedAssetType),
		errors.Is(err, asset.ErrInsufficientBalance),
		errors.Is(err, asset.ErrAmountOverflow),
		errors.Is(err, asset.ErrCoinNotRegistered),
		errors.Is(err, asset.ErrCapabilityClaimed),
		errors.Is(err, asset.ErrInvalidTypeID):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
