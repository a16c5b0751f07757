/*
Package taxonomy owns the capability forest.

A taxonomy is authored as nested Definitions (YAML or JSON), validated once by
Build and exposed read-only through a Store. Level, parent, category and domain
are derived from nesting, so a definition only has to state them where it wants
to override or assert a value.

The Store never mutates its nodes after Build returns. Reloading a taxonomy
means building a new Store and publishing it through a HotSwap.
*/
package taxonomy
