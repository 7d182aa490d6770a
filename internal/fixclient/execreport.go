package fixclient

import (
	"github.com/Charliesj0129/shijim/internal/constants"
	"github.com/Charliesj0129/shijim/internal/utils"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

// handleExecutionReport parses an Execution Report (8) and updates the
// order store, giving the execution adapter an O(1) lookup path via
// OrderStore rather than re-parsing the wire message.
func (a *FixApp) handleExecutionReport(msg *quickfix.Message) {
	er := &ExecutionReport{
		ClOrdID:      utils.GetString(msg, constants.TagClOrdID),
		OrderID:      utils.GetString(msg, constants.TagOrderID),
		ExecID:       utils.GetString(msg, constants.TagExecID),
		Account:      utils.GetString(msg, constants.TagAccount),
		Symbol:       utils.GetString(msg, constants.TagSymbol),
		OrdStatus:    utils.GetString(msg, constants.TagOrdStatus),
		ExecType:     utils.GetString(msg, constants.TagExecType),
		Side:         utils.GetString(msg, constants.TagSide),
		OrdType:      utils.GetString(msg, constants.TagOrdType),
		OrderQty:     utils.GetString(msg, constants.TagOrderQty),
		CumQty:       utils.GetString(msg, constants.TagCumQty),
		LeavesQty:    utils.GetString(msg, constants.TagLeavesQty),
		CashOrderQty: utils.GetString(msg, constants.TagCashOrderQty),
		Price:        utils.GetString(msg, constants.TagPrice),
		AvgPx:        utils.GetString(msg, constants.TagAvgPx),
		LastPx:       utils.GetString(msg, constants.TagLastPx),
		LastShares:   utils.GetString(msg, constants.TagLastShares),
		Commission:   utils.GetString(msg, constants.TagCommission),
		OrdRejReason: utils.GetString(msg, constants.TagOrdRejReason),
		Text:         utils.GetString(msg, constants.TagText),
	}

	a.OrderStore.UpdateOrderFromExecReport(er)
	a.Logger.Debug("execution report",
		zap.String("cl_ord_id", er.ClOrdID),
		zap.String("order_id", er.OrderID),
		zap.String("exec_type", er.ExecType),
		zap.String("ord_status", er.OrdStatus))

	if a.OnExecutionReport != nil {
		a.OnExecutionReport(er)
	}
}
