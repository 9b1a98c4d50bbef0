// Package engine turns a household snapshot into derived financial values.
//
// Every function here is a pure transformation of its arguments. Nothing
// reads the wall clock, logs, or touches storage: callers pass the current
// day explicitly and own any memoization. Unresolved references (a card or
// member id that is not in the snapshot) contribute nothing rather than
// failing.
//
// Components, leaves first:
//
//   - ResolvePaymentDate: credit-card billing cycle to cash-flow date.
//   - SplitEqually, DistributeRounded, CheckSplit: multi-member cost splitting.
//   - Materialize: recurring items to dated records for one month.
//   - ExpandInstallments: one purchase into N monthly charges.
//   - Aggregate, MonthTransactions, History: period totals and member positions.
//   - Project, GoalNeeds, CardInvoices: forward cash flow and funding pressure.
package engine
