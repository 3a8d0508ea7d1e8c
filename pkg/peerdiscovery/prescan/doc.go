// Package prescan orders the addresses of a network so that the ones most
// likely to be online are probed first.
//
// Scores follow common address allocation on small LANs:
//   - 100: .1, .254 (routers and gateways)
//   - 90:  .2-.5, .250-.253 (reserved infrastructure)
//   - 80:  .6-.10 (early DHCP leases)
//   - 70:  .50, .100, .150 (DHCP pool starts)
//   - 50:  .51-.99, .101-.149, .151-.200 (DHCP pool)
//   - 20:  .11-.49, .201-.249 (long tail)
//   - 0:   network and broadcast addresses
//
// Ordering only changes when an address is probed, never whether it is.
package prescan
