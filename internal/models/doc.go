// Package models defines the core domain models for the ledger service.
//
// # Models
//
//   - User: registered account, the actor behind every mutation
//   - Group: expense-sharing group owning members, a phase flag, expenses and loans
//   - Expense: one shared expense with exact integer shares per participant
//   - Loan: a single debt obligation (personal, business, or settlement-generated)
//   - Settlement: one debtor->creditor payment instruction produced by a settlement run
//
// # Design Principles
//
//  1. **Integer money**: every amount is an int64 in minor currency units
//     (cents/paisa). Decimal conversion happens only at the API boundary.
//  2. **Derived balances**: balances are never stored; they are recomputed from
//     the expense and loan sets on demand.
//  3. **Avoid circular references**: relationships use ID strings, not pointers.
package models
