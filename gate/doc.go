// Package gate decides which tool calls need human approval and keeps the
// record of approval requests and decisions for a conversation.
//
// A [Policy] maps tool names to [Rule]s. A rule can gate every call to a
// tool, or only calls whose arguments match a [Condition]. Policies are
// immutable once built and can be loaded from YAML:
//
//	description_prefix: Tool execution requires approval
//	tools:
//	  calculate: true
//	  web_search:
//	    allowed_decisions: [approve, reject]
//	  get_stock_price:
//	    when:
//	      - field: symbol
//	        pattern: "^(TSLA|GME)$"
//
// A [Ledger] belongs to a single conversation. It holds at most one
// outstanding approval and resolves each call id exactly once. The gate
// never runs tools itself: it only records what a human decided.
package gate
