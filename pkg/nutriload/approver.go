package nutriload

import "context"

// Approver confirms destructive operations such as emptying every table.
//
// Implementations:
//   - ForcedApprover: shows a countdown and approves (--force)
//   - InteractiveApprover: asks the user to type the database name
type Approver interface {
	// RequestApproval returns true when the user agreed to reset dbName.
	RequestApproval(ctx context.Context, dbName string) (bool, error)
}
