package server

import (
	"github.com/cesto-dev/cesto/lib/storage"
	"github.com/cesto-dev/cesto/rpc/common"
)

// IRPCServerAdapter is the interface for the record server's request
// adapter. It is responsible for handling requests and responses.
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response.
	// If an error occurs, it is set in the response.
	Handle(req *common.Message, store storage.IStore) (resp *common.Message)
}
