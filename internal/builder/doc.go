/*
Package builder turns a chain definition from the configuration model into a
wired, validated *chain.Chain. It acts as the bridge between the static
configuration model (defined in the 'config' package) and the execution layer
(the 'chain' package).

Construction is a multi-phase process:

 1. Validation: the definition's internal references (start component,
    connection endpoints, unique component names) are checked.

 2. Component creation: for every component block the registered factory of
    its kind is looked up, a default argument struct is created and filled by
    the Converter, and the factory is invoked.

 3. Wiring: every connection is added with its type and subtype masks, the
    start component is declared, and the chain is built once so that
    unreachable connections or feedback conflicts are reported before the
    chain is ever started.
*/
package builder
