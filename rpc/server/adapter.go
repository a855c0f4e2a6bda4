package server

import (
	"errors"
	"fmt"

	"github.com/cesto-dev/cesto/lib/storage"
	"github.com/cesto-dev/cesto/rpc/common"
)

// NewStoreAdapter creates the adapter that dispatches wire operations onto
// a record store.
func NewStoreAdapter() IRPCServerAdapter {
	return &storeAdapterImpl{}
}

type storeAdapterImpl struct{}

func (adapter *storeAdapterImpl) Handle(req *common.Message, store storage.IStore) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse(req.Op, "handler: store is nil")
	}

	// Handle different message types
	switch req.Op {
	case common.MsgTPing:
		return common.NewPongResponse()
	case common.MsgTCreateList:
		return writeResponse(req.Op, store.CreateList(req.ListID))
	case common.MsgTCreateItem:
		return writeResponse(req.Op, store.CreateItem(req.ListID, req.ItemName, req.Current, req.Target))
	case common.MsgTUpdateItem:
		return writeResponse(req.Op, store.UpdateItem(req.ListID, req.ItemName, req.Current, req.Target))
	case common.MsgTDeleteItem:
		return writeResponse(req.Op, store.DeleteItem(req.ListID, req.ItemName))
	case common.MsgTGetInfo:
		list, ok, err := store.GetList(req.ListID)
		if err != nil {
			return common.NewErrorResponse(req.Op, err.Error())
		}
		if !ok {
			return common.NewErrorResponse(req.Op, storage.ErrListNotFound.Error())
		}
		return common.NewGetInfoResponse(toListInfo(list))
	case common.MsgTListAll:
		ids, err := store.ListIDs()
		if err != nil {
			return common.NewErrorResponse(req.Op, err.Error())
		}
		return common.NewListAllResponse(ids)
	default:
		return common.NewErrorResponse(
			req.Op,
			fmt.Sprintf("Unsupported operation: %s", req.Op),
		)
	}
}

// writeResponse maps the outcome of a store write to a wire reply.
// Application-level conflicts travel verbatim in the error message.
func writeResponse(op common.MessageType, err error) *common.Message {
	if err == nil {
		return common.NewOKResponse(op)
	}
	if errors.Is(err, storage.ErrListExists) ||
		errors.Is(err, storage.ErrListNotFound) ||
		errors.Is(err, storage.ErrItemNotFound) {
		return common.NewErrorResponse(op, err.Error())
	}
	logger.Errorf("Store operation %s failed: %v", op, err)
	return common.NewErrorResponse(op, "Internal error")
}

func toListInfo(list storage.List) *common.ListInfo {
	info := &common.ListInfo{ID: list.ID, Items: make([]common.Item, 0, len(list.Items))}
	for _, it := range list.Items {
		info.Items = append(info.Items, common.Item{
			Name:     it.Name,
			Current:  it.Current,
			Target:   it.Target,
			Acquired: it.Acquired,
		})
	}
	return info
}
