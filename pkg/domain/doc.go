/*
Package domain contains the core domain models of the Teamboard dashboard.

It defines the capability taxonomy node, the team record and the picker
session state exchanged between the engine and its adapters. This package is
kept pure and free of I/O or persistence concerns, following Hexagonal
Architecture principles.

# Key Entities

  - CapabilityNode: One entry of the three-level business-capability taxonomy.
  - Team: A team record, including its working agreement and tagged capabilities.
  - PickerState: The serialisable snapshot of an open capability picker.
  - PickerView: What a presentation driver renders for a picker.
*/
package domain
